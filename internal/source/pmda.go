package source

import (
	"github.com/regwatch/regwatch-crawler/internal/datenorm"
	"github.com/regwatch/regwatch-crawler/internal/extract"
	"github.com/regwatch/regwatch-crawler/internal/locate"
	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

const (
	pmdaBaseURL = "https://www.pmda.go.jp"
	pmdaNewsURL = pmdaBaseURL + "/0017.html"
)

// pmdaBoilerplate are organization-description phrases that appear on every
// PMDA page and must never pass as article content.
var pmdaBoilerplate = []string{
	"医薬品・医療機器・再生医療等製品の承認審査・安全対策・健康被害救済の3つの業務を行う組織",
	"独立行政法人 医薬品医療機器総合機構",
	"PMDAについて",
}

// pmdaExcludePatterns reject navigation and binary links on the news list.
var pmdaExcludePatterns = compileAll(
	`/english/`, `/sitemap`, `/contact`, `/privacy`, `/accessibility`,
	`/site-policy`, `/link`, `/search`, `/user/`,
	`\.pdf$`, `\.doc$`, `\.docx$`, `\.xls$`, `\.xlsx$`,
	`javascript:`, `mailto:`, `#`, `apology_objects`,
)

// PMDA returns the Japanese regulator's what's-new source. The list is
// static HTML with per-item date, category, and title paragraphs; the list
// date is authoritative and recruiting or procurement notices are skipped.
func PMDA() pipeline.SourceConfig {
	return pipeline.SourceConfig{
		Name:  "pmda",
		Label: "PMDA News",

		BaseURL:    pmdaBaseURL,
		ListingURL: pmdaNewsURL,
		Timezone:   DefaultTimezone,

		RequestTimeout:    DefaultRequestTimeout,
		InterRequestDelay: DefaultInterRequestDelay,
		MaxItems:          DefaultMaxItems,

		Strategies: []locate.Strategy{
			{
				Name:         "list-news",
				Container:    "ul.list__news li",
				TitleHint:    "p.title",
				DateHint:     "p.date",
				CategoryHint: "p.category",
			},
			{
				// Fallback for markup drift: any list item carrying a
				// kanji-counter date is treated as a news entry.
				Name:        "list-items-dated",
				Container:   "ul li, ol li",
				TitleHint:   "p.title",
				DateHint:    "p.date",
				TextPattern: datenorm.PatternKanjiYMD,
			},
		},
		ExcludePatterns:    pmdaExcludePatterns,
		MinListingTitleLen: 10,
		SkipCategories:     []string{"採用", "調達"},

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
			Boilerplate:   pmdaBoilerplate,
		},
		Summary: &extract.SummarySpec{
			MetaSelectors: []string{
				`meta[name="description"]`,
				`meta[property="og:description"]`,
				`meta[name="keywords"]`,
			},
			Selectors: []string{
				".summary", ".lead", ".excerpt", ".abstract", ".description",
				".content p:first-of-type",
				".main-content p:first-of-type",
				"article p:first-of-type",
				"main p:first-of-type",
			},
			MinLen:      20,
			MaxLen:      300,
			Boilerplate: pmdaBoilerplate,
		},

		DateFormats: []string{
			datenorm.LayoutISO,
			datenorm.LayoutSlashYMD,
		},
		ListingDateAuthoritative: true,
		UnknownDate:              pipeline.UnknownAssumeNow,
	}
}
