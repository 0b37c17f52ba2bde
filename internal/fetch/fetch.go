// Package fetch provides the outbound HTTP surface of a pipeline: a
// colly-backed fetcher for static pages and a chromedp-backed renderer for
// JavaScript-rendered listings. Each pipeline owns its fetcher instances;
// nothing here is shared across sources.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

// Page is one fetched document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Rendered   bool
}

// Document parses the page body.
func (p Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.URL, err)
	}
	return doc, nil
}

// Fetcher retrieves one URL. Implementations must be safe for sequential
// reuse by a single pipeline; they are not required to be concurrency-safe.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}
