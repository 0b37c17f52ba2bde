package source

import (
	"regexp"

	"github.com/regwatch/regwatch-crawler/internal/extract"
	"github.com/regwatch/regwatch-crawler/internal/locate"
	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

const (
	emaBaseURL = "https://www.ema.europa.eu"
	emaNewsURL = emaBaseURL + "/en/news"
)

var emaNewsPath = regexp.MustCompile(`/en/news/`)

// EMA returns the European Medicines Agency news source. The site is fully
// static; listing cards carry no reliable dates, so the detail page decides
// timestamps. Zoneless dates on EMA pages are UTC. Titles mentioning
// consultation-stage documents trigger a related-document harvest.
func EMA() pipeline.SourceConfig {
	return pipeline.SourceConfig{
		Name:  "ema",
		Label: "EMA News",

		BaseURL:    emaBaseURL,
		ListingURL: emaNewsURL,
		Timezone:   DefaultTimezone,

		RequestTimeout:    DefaultRequestTimeout,
		InterRequestDelay: DefaultInterRequestDelay,
		MaxItems:          DefaultMaxItems,

		Strategies: []locate.Strategy{
			{Name: "ecl-card", Container: ".ecl-card"},
			{Name: "news-card", Container: ".news-card"},
			{Name: "article-card", Container: ".article-card"},
			{Name: "any-card", Container: "[class*='card']"},
		},
		IncludePatterns: []*regexp.Regexp{emaNewsPath},

		Title: extract.TitleSpec{
			Selectors: []string{
				".ecl-card__title a",
				".news-title a",
				"h3 a",
				"h2 a",
				".title a",
			},
		},
		Content: extract.ContentSpec{
			Selectors: []string{
				".ecl-content-block__body p",
				".news-content p",
				".article-content p",
				".content p",
				"main p",
			},
			MaxParagraphs: 3,
			MinLen:        50,
		},
		SummaryMaxLen: 200,

		DateSelectors: []string{
			".ecl-card__meta",
			".news-date",
			".date",
			"[class*='date']",
			"time",
		},
		AssumeUTC:   true,
		UnknownDate: pipeline.UnknownAssumeNow,

		AttachmentKeywords: []string{
			"reflection paper",
			"guideline",
			"consultation",
			"draft",
		},
	}
}
