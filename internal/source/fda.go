package source

import (
	"regexp"
	"time"

	"github.com/regwatch/regwatch-crawler/internal/datenorm"
	"github.com/regwatch/regwatch-crawler/internal/extract"
	"github.com/regwatch/regwatch-crawler/internal/locate"
	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

const (
	fdaBaseURL     = "https://www.fda.gov"
	fdaGuidanceURL = fdaBaseURL + "/regulatory-information/search-fda-guidance-documents"
	// fdaCrawlDelay honors the crawl-delay FDA publishes in robots.txt.
	fdaCrawlDelay = 30 * time.Second
)

// fdaGuidancePatterns admit guidance-document URLs across FDA's product
// centers.
var fdaGuidancePatterns = compileAll(
	`/search-fda-guidance-documents/`,
	`/guidance-documents/`,
	`/regulatory-information/search-fda-guidance-documents/`,
	`/drugs/guidance-compliance-regulatory-information/`,
	`/medical-devices/device-regulation-and-guidance/`,
	`/food/guidance-documents-regulatory-information/`,
	`/vaccines/guidance-documents/`,
	`/tobacco-products/guidance-documents/`,
	`/radiation-emitting-products/guidance-documents/`,
	`/biologics/guidance-documents/`,
	`/animal-veterinary/guidance-documents/`,
)

// fdaExcludePatterns reject site plumbing that matches the guidance paths.
var fdaExcludePatterns = compileAll(
	`/apology_objects/`, `/user/`, `/admin/`, `/comment/`,
	`/filter/`, `/node/`, `/file/`, `/taxonomy/`, `\.pdf$`,
	`javascript:`, `mailto:`, `#$`, `^/$`, `/media/`, `/images/`,
	`/css/`, `/js/`, `/sites/`, `/themes/`, `/modules/`, `/libraries/`,
	`/core/`, `/profiles/`, `/contact$`, `/about$`, `/news$`,
	`^/search$`,
)

// FDA returns the FDA guidance-document source. The search table only
// exists after client-side rendering, so both listing and detail pages go
// through the headless renderer. The table's issue date is authoritative;
// rows without one defer to the detail page.
func FDA() pipeline.SourceConfig {
	return pipeline.SourceConfig{
		Name:  "fda",
		Label: "FDA Guidance",

		BaseURL:    fdaBaseURL,
		ListingURL: fdaGuidanceURL,
		Timezone:   DefaultTimezone,

		RequestTimeout:    DefaultRequestTimeout,
		InterRequestDelay: fdaCrawlDelay,
		MaxItems:          DefaultMaxItems,

		RenderedListing: true,
		RenderedDetail:  true,
		WaitSelector:    "div.lcds-datatable",
		WaitTimeout:     15 * time.Second,

		Strategies: []locate.Strategy{
			{
				Name:             "lcds-datatable",
				Container:        "div.lcds-datatable tbody tr",
				Link:             `td[tabindex="0"] a[href]`,
				DateHint:         "td.sorting_1",
				DateCellFallback: datenorm.PatternSlashMDY,
			},
			{
				Name:             "plain-table",
				Container:        "table tbody tr",
				DateHint:         "td.sorting_1",
				DateCellFallback: datenorm.PatternSlashMDY,
			},
		},
		IncludePatterns: fdaGuidancePatterns,
		ExcludePatterns: fdaExcludePatterns,

		Title: extract.TitleSpec{
			Selectors: []string{
				"h1.fda-page-title",
				"h1.page-title",
				"h1",
				`meta[property="og:title"]`,
				`meta[name="dcterms.title"]`,
			},
			MinLen:       10,
			ErrorPhrases: extract.ErrorPagePhrases,
		},
		Content: extract.ContentSpec{
			Selectors: []string{
				".field--name-body",
				".region-content",
				".node__content",
				".block-system-main-block",
				`div[property="schema:text"]`,
				"div.content",
			},
			MaxParagraphs: 3,
			MinLen:        50,
		},
		SummaryMaxLen: 200,

		DateSelectors: []string{
			".field--name-field-date", ".field--name-created", ".date-display-single",
			".field--name-field-published-date", "time[datetime]", ".published-date",
			".field--name-field-issue-date", ".issue-date",
			`meta[property="article:published_time"]`, `meta[property="og:updated_time"]`,
			".date", ".publish-date", ".created-date", ".updated-date",
		},
		DateFormats: []string{datenorm.LayoutSlashMDY, datenorm.LayoutISO},
		DateScanPatterns: []*regexp.Regexp{
			datenorm.PatternSlashMDY,
			datenorm.PatternISO,
			datenorm.PatternMonthDY,
			datenorm.PatternDMonthY,
		},
		ListingDateAuthoritative: true,
		UnknownDate:              pipeline.UnknownFetchDetail,
	}
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+expr))
	}
	return out
}
