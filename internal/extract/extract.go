// Package extract pulls normalized fields out of one fetched document using
// ordered selector chains. Every chain short-circuits on the first selector
// that yields a usable value; the chains are data supplied by the source
// configuration, so adapting to markup drift means editing a list, not code.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// NoContent is emitted when no selector set yields a single qualifying
// paragraph. Records carry the sentinel instead of failing.
const NoContent = "Content not available"

// ErrorPagePhrases mark titles that belong to an error page, not an item.
// Matching is case-insensitive substring.
var ErrorPagePhrases = []string{
	"page not found",
	"not available",
	"error",
	"404",
}

// TitleSpec configures title extraction.
type TitleSpec struct {
	Selectors []string
	// MinLen rejects stub titles; 0 means any non-empty text qualifies.
	MinLen int
	// ErrorPhrases defaults to ErrorPagePhrases when nil.
	ErrorPhrases []string
}

// ContentSpec configures body-excerpt extraction.
type ContentSpec struct {
	// Selectors are paragraph-group selectors tried in order.
	Selectors []string
	// MaxParagraphs caps how many qualifying paragraphs are collected.
	MaxParagraphs int
	// MinLen drops navigation fragments and boilerplate stubs.
	MinLen int
	// Boilerplate phrases disqualify a paragraph regardless of length.
	Boilerplate []string
}

// SummarySpec configures lead-text extraction.
type SummarySpec struct {
	// MetaSelectors are meta-tag selectors whose content attribute is read.
	MetaSelectors []string
	// Selectors are element selectors read as display text.
	Selectors   []string
	MinLen      int
	MaxLen      int
	Boilerplate []string
}

// Title returns the first acceptable title in the chain, falling back to the
// document's <title> element. ok is false when every candidate is empty, too
// short, or reads like an error page.
func Title(doc *goquery.Document, spec TitleSpec) (string, bool) {
	phrases := spec.ErrorPhrases
	if phrases == nil {
		phrases = ErrorPagePhrases
	}
	for _, selector := range spec.Selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		title := selectionText(sel)
		if !acceptableTitle(title, spec.MinLen) {
			continue
		}
		if isErrorTitle(title, phrases) {
			return "", false
		}
		return title, true
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if !acceptableTitle(title, spec.MinLen) {
		return "", false
	}
	if isErrorTitle(title, phrases) {
		return "", false
	}
	return title, true
}

// Content collects up to MaxParagraphs qualifying paragraphs under the first
// selector that yields any, joined with a blank line. When no selector set
// produces a paragraph it scans all <p> elements document-wide, and finally
// emits the NoContent sentinel.
func Content(doc *goquery.Document, spec ContentSpec) string {
	for _, selector := range spec.Selectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if paragraphs := collect(sel, spec); len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n")
		}
	}
	if paragraphs := collect(doc.Find("p"), spec); len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}
	return NoContent
}

// Summary returns a short lead for the record: meta description chains first,
// then lead-text selectors, then the first qualifying paragraph. The result
// is truncated to MaxLen with an ellipsis. Empty string means no summary.
func Summary(doc *goquery.Document, spec SummarySpec) string {
	for _, selector := range spec.MetaSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		content, _ := sel.Attr("content")
		content = strings.TrimSpace(content)
		if qualifies(content, spec.MinLen, spec.Boilerplate) {
			return truncate(content, spec.MaxLen)
		}
	}
	for _, selector := range spec.Selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(sel.Text())
		if qualifies(text, spec.MinLen, spec.Boilerplate) {
			return truncate(text, spec.MaxLen)
		}
	}
	var fallback string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if qualifies(text, spec.MinLen, spec.Boilerplate) {
			fallback = truncate(text, spec.MaxLen)
			return false
		}
		return true
	})
	return fallback
}

// Lead derives a summary from already-extracted body text.
func Lead(content string, maxLen int) string {
	if content == NoContent {
		return ""
	}
	return truncate(content, maxLen)
}

func collect(sel *goquery.Selection, spec ContentSpec) []string {
	var paragraphs []string
	sel.EachWithBreak(func(_ int, node *goquery.Selection) bool {
		// Selector sets may target paragraph containers or the paragraphs
		// themselves; descend when the node has <p> children.
		nodes := node.Find("p")
		if nodes.Length() == 0 {
			nodes = node
		}
		nodes.EachWithBreak(func(_ int, p *goquery.Selection) bool {
			if spec.MaxParagraphs > 0 && len(paragraphs) >= spec.MaxParagraphs {
				return false
			}
			text := strings.TrimSpace(p.Text())
			if qualifies(text, spec.MinLen, spec.Boilerplate) {
				paragraphs = append(paragraphs, text)
			}
			return true
		})
		return spec.MaxParagraphs <= 0 || len(paragraphs) < spec.MaxParagraphs
	})
	return paragraphs
}

func qualifies(text string, minLen int, boilerplate []string) bool {
	// Length thresholds count characters, not bytes, so CJK text is not
	// held to a tripled bar.
	if text == "" || utf8.RuneCountInString(text) <= minLen {
		return false
	}
	for _, phrase := range boilerplate {
		if strings.Contains(text, phrase) {
			return false
		}
	}
	return true
}

func acceptableTitle(title string, minLen int) bool {
	return title != "" && utf8.RuneCountInString(title) > minLen
}

func isErrorTitle(title string, phrases []string) bool {
	lowered := strings.ToLower(title)
	for _, phrase := range phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func selectionText(sel *goquery.Selection) string {
	if goquery.NodeName(sel) == "meta" {
		content, _ := sel.Attr("content")
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(sel.Text())
}

func truncate(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	// Cut on a rune boundary so multibyte text is not split mid-character.
	runes := []rune(text)
	cut := len(runes)
	for i := range runes {
		if len(string(runes[:i+1])) > maxLen {
			cut = i
			break
		}
	}
	return string(runes[:cut]) + "..."
}
