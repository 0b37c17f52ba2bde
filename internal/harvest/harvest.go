// Package harvest downloads the related-document attachments advertised on
// eligible detail pages and files them in a local store.
package harvest

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/regwatch/regwatch-crawler/internal/fetch"
	"github.com/regwatch/regwatch-crawler/internal/metrics"
)

// Attachment describes one harvested document. LocalRef is empty when the
// download failed; the record still carries the source URL.
type Attachment struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	LocalRef string `json:"local_ref,omitempty"`
	ByteSize int64  `json:"byte_size"`
}

// Store persists attachment bytes under a name and returns a stable
// reference to the stored copy.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Sleeper paces consecutive attachment downloads.
type Sleeper interface {
	Pause(ctx context.Context, delay time.Duration)
}

// defaultHeading matches the section heading that introduces the document
// list on detail pages.
var defaultHeading = regexp.MustCompile(`(?i)related documents`)

// Config tunes a Harvester.
type Config struct {
	// TriggerKeywords gate harvesting on the item title; a title must
	// contain at least one, case-insensitively.
	TriggerKeywords []string
	// HeadingPattern matches the heading whose following list holds the
	// document links. Defaults to a "related documents" match.
	HeadingPattern *regexp.Regexp
	// Delay is the pause between consecutive attachment downloads.
	Delay time.Duration
	// MaxNameLen bounds the sanitized title portion of stored filenames.
	// Defaults to 50.
	MaxNameLen int
}

// Harvester finds and downloads attachments for one source.
type Harvester struct {
	cfg     Config
	fetcher fetch.Fetcher
	store   Store
	sleeper Sleeper
	logger  *zap.Logger
	source  string
}

// New builds a Harvester. fetcher and store must not be nil.
func New(cfg Config, source string, fetcher fetch.Fetcher, store Store, sleeper Sleeper, logger *zap.Logger) (*Harvester, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("harvester needs a fetcher")
	}
	if store == nil {
		return nil, fmt.Errorf("harvester needs a store")
	}
	if cfg.HeadingPattern == nil {
		cfg.HeadingPattern = defaultHeading
	}
	if cfg.MaxNameLen <= 0 {
		cfg.MaxNameLen = 50
	}
	if sleeper == nil {
		sleeper = noPause{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		sleeper: sleeper,
		logger:  logger,
		source:  source,
	}, nil
}

// Eligible reports whether an item title warrants an attachment harvest.
func (h *Harvester) Eligible(title string) bool {
	if len(h.cfg.TriggerKeywords) == 0 {
		return false
	}
	lowered := strings.ToLower(title)
	for _, kw := range h.cfg.TriggerKeywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Harvest locates the related-document list on doc and downloads each link.
// A failed download is logged and reported with an empty LocalRef; it never
// aborts the rest of the harvest.
func (h *Harvester) Harvest(ctx context.Context, doc *goquery.Document, base *url.URL) []Attachment {
	links := h.documentLinks(doc, base)
	if len(links) == 0 {
		return nil
	}
	attachments := make([]Attachment, 0, len(links))
	for i, link := range links {
		if i > 0 {
			h.sleeper.Pause(ctx, h.cfg.Delay)
		}
		att := Attachment{Title: link.title, URL: link.url}
		if err := h.download(ctx, i, &att); err != nil {
			h.logger.Warn("attachment download failed",
				zap.String("source", h.source),
				zap.String("url", link.url),
				zap.Error(err),
			)
		} else {
			metrics.CountAttachment(h.source)
		}
		attachments = append(attachments, att)
	}
	return attachments
}

type docLink struct {
	title string
	url   string
}

// documentLinks walks headings matching the configured pattern and collects
// PDF or download links from the list that follows each one.
func (h *Harvester) documentLinks(doc *goquery.Document, base *url.URL) []docLink {
	var links []docLink
	seen := make(map[string]struct{})
	doc.Find("h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		if !h.cfg.HeadingPattern.MatchString(heading.Text()) {
			return
		}
		heading.NextAllFiltered("ul, ol").First().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if !documentHref(href) {
				return
			}
			resolved := resolve(base, href)
			if resolved == "" {
				return
			}
			if _, dup := seen[resolved]; dup {
				return
			}
			seen[resolved] = struct{}{}
			title := strings.TrimSpace(a.Text())
			if title == "" {
				title = "document"
			}
			links = append(links, docLink{title: title, url: resolved})
		})
	})
	return links
}

func (h *Harvester) download(ctx context.Context, index int, att *Attachment) error {
	page, err := h.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("attachment_%03d_%s.pdf", index, sanitizeName(att.Title, h.cfg.MaxNameLen))
	ref, err := h.store.Put(ctx, name, page.Body)
	if err != nil {
		return err
	}
	att.LocalRef = ref
	att.ByteSize = int64(len(page.Body))
	return nil
}

// documentHref admits links that look like documents: a .pdf path or a
// download endpoint.
func documentHref(href string) bool {
	lowered := strings.ToLower(href)
	return strings.HasSuffix(lowered, ".pdf") || strings.Contains(lowered, "download")
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

// sanitizeName keeps letters, digits, spaces, and dashes, then bounds the
// result so stored filenames stay portable.
func sanitizeName(title string, maxLen int) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}
	name := strings.TrimSpace(b.String())
	runes := []rune(name)
	if len(runes) > maxLen {
		name = string(runes[:maxLen])
	}
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "document"
	}
	return name
}

type noPause struct{}

func (noPause) Pause(context.Context, time.Duration) {}
