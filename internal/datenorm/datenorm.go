// Package datenorm parses free-form publication dates into timestamps
// anchored to a fixed target timezone. Sources publish dates in several
// calendar notations (slash, dash, ISO, spelled-out month names, and the
// Japanese 年/月/日 counter form); parsing tries a source-specific ordered
// list of format templates and falls back to progressively looser
// strategies. A value that no strategy can parse yields ok=false rather
// than an error.
package datenorm

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Layout templates shared across sources.
const (
	LayoutISO      = "2006-1-2"
	LayoutSlashYMD = "2006/1/2"
	LayoutSlashMDY = "1/2/2006"
	LayoutSlashDMY = "2/1/2006"
	LayoutDashMDY  = "1-2-2006"
	LayoutMonthDY  = "January 2, 2006"
	LayoutDMonthY  = "2 January 2006"
)

// attrLayouts cover machine-readable datetime attributes.
var attrLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// lenientLayouts are the last-resort templates tried after the source's own
// format list.
var lenientLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	LayoutISO,
	LayoutSlashYMD,
	LayoutMonthDY,
	LayoutDMonthY,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Date-shaped substring patterns for full-document scans.
var (
	PatternSlashMDY = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
	PatternISO      = regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2})\b`)
	PatternSlashYMD = regexp.MustCompile(`\b(\d{4}/\d{1,2}/\d{1,2})\b`)
	PatternMonthDY  = regexp.MustCompile(`\b([A-Z][a-z]+ \d{1,2}, \d{4})\b`)
	PatternDMonthY  = regexp.MustCompile(`\b(\d{1,2} [A-Z][a-z]+ \d{4})\b`)
	PatternKanjiYMD = regexp.MustCompile(`(\d{4}年\d{1,2}月\d{1,2}日)`)
)

// kanjiCounters rewrites 2025年10月7日 into 2025-10-7 before numeric parsing.
var kanjiCounters = strings.NewReplacer("年", "-", "月", "-", "日", "")

// maxScanAge bounds how old a scanned date may be before it is treated as
// page furniture rather than a publication date.
const maxScanAge = 2 // years

// Normalizer converts date strings into timestamps in the target location.
type Normalizer struct {
	// Formats is the source-specific ordered template list.
	Formats []string
	// NaiveIn is the location assumed for values without timezone info.
	NaiveIn *time.Location
	// Target is the location every returned timestamp is converted to.
	Target *time.Location
	// Now supplies the reference time for future/stale rejection during
	// document scans. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Normalizer with the given templates and locations.
func New(formats []string, naiveIn, target *time.Location) *Normalizer {
	return &Normalizer{Formats: formats, NaiveIn: naiveIn, Target: target}
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *Normalizer) naiveIn() *time.Location {
	if n.NaiveIn != nil {
		return n.NaiveIn
	}
	return time.UTC
}

func (n *Normalizer) target() *time.Location {
	if n.Target != nil {
		return n.Target
	}
	return time.UTC
}

// Parse converts raw into a timestamp in the target location. It tries the
// source format templates first, then the lenient layout list. ok is false
// when nothing matched.
func (n *Normalizer) Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if strings.ContainsRune(raw, '年') {
		raw = kanjiCounters.Replace(raw)
	}
	for _, layout := range n.Formats {
		if t, err := time.ParseInLocation(layout, raw, n.naiveIn()); err == nil {
			return t.In(n.target()), true
		}
	}
	for _, layout := range lenientLayouts {
		if t, err := time.ParseInLocation(layout, raw, n.naiveIn()); err == nil {
			return t.In(n.target()), true
		}
	}
	return time.Time{}, false
}

// ParseAttr parses a machine-readable attribute value (datetime="...") with
// the strict attribute layouts only.
func (n *Normalizer) ParseAttr(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range attrLayouts {
		if t, err := time.ParseInLocation(layout, raw, n.naiveIn()); err == nil {
			return t.In(n.target()), true
		}
	}
	return time.Time{}, false
}

// FromDocument walks the ordered selector list and returns the first date it
// can parse. For each matched element the machine-readable attribute wins
// over display text: datetime= for time elements, content= for meta tags.
func (n *Normalizer) FromDocument(doc *goquery.Document, selectors []string) (time.Time, bool) {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if attr, ok := sel.Attr("datetime"); ok {
			if t, parsed := n.ParseAttr(attr); parsed {
				return t, true
			}
		}
		if goquery.NodeName(sel) == "meta" {
			if content, ok := sel.Attr("content"); ok {
				if t, parsed := n.ParseAttr(content); parsed {
					return t, true
				}
				if t, parsed := n.Parse(content); parsed {
					return t, true
				}
			}
			continue
		}
		if t, parsed := n.Parse(strings.TrimSpace(sel.Text())); parsed {
			return t, true
		}
	}
	return time.Time{}, false
}

// ScanText searches the full document text for date-shaped substrings using
// the given patterns in priority order (the source's locale-typical ordering
// first). Future-dated matches and matches older than two years are rejected
// so spurious numbers in page furniture are not mistaken for the publication
// date.
func (n *Normalizer) ScanText(text string, patterns []*regexp.Regexp) (time.Time, bool) {
	now := n.now().In(n.target())
	oldest := now.AddDate(-maxScanAge, 0, 0)
	for _, pattern := range patterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if len(match) < 2 {
				continue
			}
			t, ok := n.Parse(match[1])
			if !ok {
				continue
			}
			if t.After(now.Add(24 * time.Hour)) {
				continue
			}
			if t.Before(oldest) {
				continue
			}
			return t, true
		}
	}
	return time.Time{}, false
}
