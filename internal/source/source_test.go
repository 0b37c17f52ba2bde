package source

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

func TestAllConfigsValidate(t *testing.T) {
	configs := All()
	require.Len(t, configs, 4)
	for _, sc := range configs {
		assert.NoError(t, sc.Validate(), "source %s", sc.Name)
		assert.Equal(t, DefaultTimezone, sc.Timezone, "source %s", sc.Name)
	}
}

func TestByName(t *testing.T) {
	sc, err := ByName("pmda")
	require.NoError(t, err)
	assert.Equal(t, "pmda", sc.Name)

	_, err = ByName("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestNamesStable(t *testing.T) {
	assert.Equal(t, []string{"ema", "fda", "pmda", "who"}, Names())
}

func TestEMAShape(t *testing.T) {
	sc := EMA()
	assert.False(t, sc.RenderedListing)
	assert.False(t, sc.ListingDateAuthoritative, "EMA dates come from detail pages")
	assert.True(t, sc.AssumeUTC)
	assert.Equal(t, pipeline.UnknownAssumeNow, sc.UnknownDate)
	assert.Contains(t, sc.AttachmentKeywords, "reflection paper")
	assert.Equal(t, DefaultInterRequestDelay, sc.InterRequestDelay)
}

func TestFDAShape(t *testing.T) {
	sc := FDA()
	assert.True(t, sc.RenderedListing)
	assert.True(t, sc.RenderedDetail)
	assert.Equal(t, 30*time.Second, sc.InterRequestDelay, "FDA robots.txt crawl delay")
	assert.True(t, sc.ListingDateAuthoritative)
	assert.Equal(t, pipeline.UnknownFetchDetail, sc.UnknownDate)
	assert.Equal(t, "div.lcds-datatable", sc.WaitSelector)

	// Guidance paths pass the include patterns, site plumbing does not.
	assert.True(t, matchesAny(sc.IncludePatterns, "/regulatory-information/search-fda-guidance-documents/some-doc"))
	assert.False(t, matchesAny(sc.IncludePatterns, "/about-fda/contact"))
	assert.True(t, matchesAny(sc.ExcludePatterns, "/files/guidance-documents/annex.pdf"))
	assert.True(t, matchesAny(sc.ExcludePatterns, "/user/login"))
}

func TestPMDAShape(t *testing.T) {
	sc := PMDA()
	assert.False(t, sc.RenderedListing)
	assert.Equal(t, []string{"採用", "調達"}, sc.SkipCategories)
	assert.Equal(t, 10, sc.MinListingTitleLen)
	assert.True(t, sc.ListingDateAuthoritative)
	assert.Equal(t, pipeline.UnknownAssumeNow, sc.UnknownDate)
	require.Len(t, sc.Strategies, 2, "markup drift falls back to a dated list-item scan")
	fallback := sc.Strategies[1]
	require.NotNil(t, fallback.TextPattern)
	assert.True(t, fallback.TextPattern.MatchString("2025年10月7日 新医薬品のお知らせ"))
	assert.False(t, fallback.TextPattern.MatchString("サイトマップ"))
	require.NotNil(t, sc.Summary)
	assert.NotEmpty(t, sc.Summary.Boilerplate)
	assert.True(t, matchesAny(sc.ExcludePatterns, "/english/index.html"))
	assert.True(t, matchesAny(sc.ExcludePatterns, "/files/notice.pdf"))
	assert.False(t, matchesAny(sc.ExcludePatterns, "/0017/news-item.html"))
}

func TestWHOShape(t *testing.T) {
	sc := WHO()
	assert.True(t, sc.RenderedListing)
	assert.False(t, sc.RenderedDetail, "WHO detail pages are static")
	assert.Equal(t, "div.hubfiltering", sc.WaitSelector)
	assert.Equal(t, 20*time.Second, sc.WaitTimeout)
	assert.Equal(t, pipeline.UnknownInclude, sc.UnknownDate)
	assert.Len(t, sc.DateFormats, 8)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
