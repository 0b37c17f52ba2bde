package source

import (
	"time"

	"github.com/regwatch/regwatch-crawler/internal/datenorm"
	"github.com/regwatch/regwatch-crawler/internal/extract"
	"github.com/regwatch/regwatch-crawler/internal/locate"
	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

const (
	whoBaseURL = "https://www.who.int"
	whoNewsURL = whoBaseURL + "/news"
)

// WHO returns the World Health Organization news source. The news hub is a
// client-rendered filter widget, so the listing goes through the headless
// renderer; detail pages are static. WHO timestamps vary wildly in format,
// and items without a parseable date are kept rather than dropped.
func WHO() pipeline.SourceConfig {
	return pipeline.SourceConfig{
		Name:  "who",
		Label: "WHO News",

		BaseURL:    whoBaseURL,
		ListingURL: whoNewsURL,
		Timezone:   DefaultTimezone,

		RequestTimeout:    DefaultRequestTimeout,
		InterRequestDelay: DefaultInterRequestDelay,
		MaxItems:          DefaultMaxItems,

		RenderedListing: true,
		WaitSelector:    "div.hubfiltering",
		WaitTimeout:     20 * time.Second,

		Strategies: []locate.Strategy{
			{
				Name:      "hub-list-view",
				Container: `div.hubfiltering div[class*="list-view--item"]`,
				DateHint:  "div.table-cell.info span.timestamp",
			},
			{
				Name:      "vertical-list",
				Container: `div.hubfiltering div[class*="vertical-list-item"]`,
				DateHint:  `span.timestamp, .timestamp, .date, .published, [class*="date"], [class*="time"]`,
			},
		},
		MinListingTitleLen: 10,

		Title: extract.TitleSpec{
			Selectors: []string{
				"h1",
				".page-title",
				".article-title",
				".news-title",
				`meta[property="og:title"]`,
				`meta[name="dcterms.title"]`,
			},
			MinLen:       10,
			ErrorPhrases: extract.ErrorPagePhrases,
		},
		Content: extract.ContentSpec{
			Selectors: []string{
				".content",
				".article-content",
				".news-content",
				".main-content",
				".body",
				"article",
				"main",
			},
			MaxParagraphs: 3,
			MinLen:        30,
		},
		Summary: &extract.SummarySpec{
			MetaSelectors: []string{
				`meta[name="description"]`,
				`meta[property="og:description"]`,
			},
			Selectors: []string{
				".summary", ".lead", ".excerpt", ".abstract", ".description",
				".content p:first-of-type",
				"article p:first-of-type",
				"main p:first-of-type",
			},
			MinLen: 20,
			MaxLen: 300,
		},

		DateFormats: []string{
			datenorm.LayoutISO,
			datenorm.LayoutSlashYMD,
			datenorm.LayoutSlashDMY,
			datenorm.LayoutSlashMDY,
			"2-1-2006",
			datenorm.LayoutDashMDY,
			datenorm.LayoutMonthDY,
			datenorm.LayoutDMonthY,
		},
		ListingDateAuthoritative: true,
		UnknownDate:              pipeline.UnknownInclude,
	}
}
