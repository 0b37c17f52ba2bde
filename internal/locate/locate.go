// Package locate discovers candidate item URLs on a listing document.
//
// Discovery runs an ordered list of strategies; the first strategy that
// yields at least one candidate wins and later strategies are never merged
// in. When no strategy matches, a generic scan over every anchor applies the
// source's URL inclusion and exclusion patterns. Output is deduplicated by
// absolute URL with the original document order preserved, then capped.
package locate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is a discovered item URL plus best-effort listing hints. Hints
// may be absent or wrong; the detail page is authoritative unless the source
// configuration says otherwise.
type Candidate struct {
	URL          string
	HintTitle    string
	HintDateText string
	HintCategory string
}

// Strategy describes one way of locating items on a listing page. All fields
// except Container are optional.
type Strategy struct {
	// Name identifies the strategy in logs.
	Name string
	// Container selects the per-item containers (cards, list items, rows).
	Container string
	// Link selects the anchor within a container; defaults to "a[href]".
	Link string
	// TitleHint, DateHint, CategoryHint select listing-level metadata
	// within a container.
	TitleHint    string
	DateHint     string
	CategoryHint string
	// DateCellFallback, when set, scans every table cell in the container
	// for date-shaped text if DateHint matched nothing.
	DateCellFallback *regexp.Regexp
	// TextPattern, when set, admits a container only if its visible text
	// matches. Loose fallback strategies use it to avoid sweeping up
	// navigation list items.
	TextPattern *regexp.Regexp
}

// Config carries the source-specific locator inputs.
type Config struct {
	BaseURL    *url.URL
	Strategies []Strategy
	// IncludePatterns admit anchor paths during the generic fallback scan
	// and validate strategy hits; empty means admit all.
	IncludePatterns []*regexp.Regexp
	// ExcludePatterns reject anchor paths everywhere.
	ExcludePatterns []*regexp.Regexp
	// MinTitleLen rejects candidates whose listing title is a stub; only
	// applied when the strategy exposes a title hint.
	MinTitleLen int
	// SkipCategories drops candidates whose category hint matches exactly.
	SkipCategories []string
	// MaxItems caps the returned slice; 0 means no cap.
	MaxItems int
}

// Candidates extracts the deduplicated, order-preserving candidate list from
// one listing document.
func Candidates(doc *goquery.Document, cfg Config) []Candidate {
	out := tryStrategies(doc, cfg)
	if len(out) == 0 {
		out = genericAnchorScan(doc, cfg)
	}
	out = dedupe(out)
	if cfg.MaxItems > 0 && len(out) > cfg.MaxItems {
		out = out[:cfg.MaxItems]
	}
	return out
}

func tryStrategies(doc *goquery.Document, cfg Config) []Candidate {
	for _, strategy := range cfg.Strategies {
		containers := doc.Find(strategy.Container)
		if containers.Length() == 0 {
			continue
		}
		var found []Candidate
		containers.Each(func(_ int, container *goquery.Selection) {
			if cand, ok := fromContainer(container, strategy, cfg); ok {
				found = append(found, cand)
			}
		})
		if len(found) > 0 {
			// First strategy that yields a candidate wins; merging results
			// across strategies would join unrelated fragments.
			return found
		}
	}
	return nil
}

func fromContainer(container *goquery.Selection, strategy Strategy, cfg Config) (Candidate, bool) {
	if strategy.TextPattern != nil && !strategy.TextPattern.MatchString(container.Text()) {
		return Candidate{}, false
	}
	linkSelector := strategy.Link
	if linkSelector == "" {
		linkSelector = "a[href]"
	}
	link := container
	if goquery.NodeName(container) != "a" {
		link = container.Find(linkSelector).First()
	}
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return Candidate{}, false
	}
	if !admissible(href, cfg) {
		return Candidate{}, false
	}

	cand := Candidate{URL: absolute(cfg.BaseURL, href)}
	if cand.URL == "" {
		return Candidate{}, false
	}

	if strategy.TitleHint != "" {
		cand.HintTitle = strings.TrimSpace(container.Find(strategy.TitleHint).First().Text())
	}
	if cand.HintTitle == "" {
		cand.HintTitle = strings.TrimSpace(link.Text())
	}
	// Count characters, not bytes; kanji titles are three bytes per rune.
	if cfg.MinTitleLen > 0 && utf8.RuneCountInString(cand.HintTitle) < cfg.MinTitleLen {
		return Candidate{}, false
	}

	if strategy.DateHint != "" {
		cand.HintDateText = strings.TrimSpace(container.Find(strategy.DateHint).First().Text())
	}
	if cand.HintDateText == "" && strategy.DateCellFallback != nil {
		container.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			text := strings.TrimSpace(cell.Text())
			if strategy.DateCellFallback.MatchString(text) {
				cand.HintDateText = text
				return false
			}
			return true
		})
	}

	if strategy.CategoryHint != "" {
		cand.HintCategory = strings.TrimSpace(container.Find(strategy.CategoryHint).First().Text())
		for _, skip := range cfg.SkipCategories {
			if cand.HintCategory == skip {
				return Candidate{}, false
			}
		}
	}
	return cand, true
}

func genericAnchorScan(doc *goquery.Document, cfg Config) []Candidate {
	var out []Candidate
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || !admissible(href, cfg) {
			return
		}
		if len(cfg.IncludePatterns) == 0 {
			return
		}
		abs := absolute(cfg.BaseURL, href)
		if abs == "" {
			return
		}
		out = append(out, Candidate{
			URL:       abs,
			HintTitle: strings.TrimSpace(link.Text()),
		})
	})
	return out
}

func admissible(href string, cfg Config) bool {
	for _, pattern := range cfg.ExcludePatterns {
		if pattern.MatchString(href) {
			return false
		}
	}
	if len(cfg.IncludePatterns) == 0 {
		return true
	}
	for _, pattern := range cfg.IncludePatterns {
		if pattern.MatchString(href) {
			return true
		}
	}
	return false
}

func absolute(base *url.URL, href string) string {
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
	ref.Fragment = ""
	return ref.String()
}

func dedupe(in []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, cand := range in {
		if _, dup := seen[cand.URL]; dup {
			continue
		}
		seen[cand.URL] = struct{}{}
		out = append(out, cand)
	}
	return out
}
