package pipeline

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/regwatch/regwatch-crawler/internal/extract"
	"github.com/regwatch/regwatch-crawler/internal/locate"
)

// SourceConfig carries everything site-specific: where the listing lives,
// how to locate candidates, how to pull fields out of detail pages, how to
// read dates, and how strictly to pace requests. The orchestration in
// Pipeline is shared; only this struct differs between sources.
type SourceConfig struct {
	// Name is the stable machine identifier, e.g. "ema".
	Name string
	// Label is the human-readable source name used in logs and manifests.
	Label string

	BaseURL    string
	ListingURL string

	// Timezone is the IANA zone all emitted timestamps are expressed in.
	Timezone string

	RequestTimeout time.Duration
	// InterRequestDelay is the mandatory pause between consecutive detail
	// fetches within one run.
	InterRequestDelay time.Duration
	// MaxItems caps how many candidates a run will process.
	MaxItems int

	// RenderedListing and RenderedDetail select the headless renderer over
	// the static client for the respective fetches.
	RenderedListing bool
	RenderedDetail  bool
	// WaitSelector is the container the renderer waits for before
	// snapshotting a rendered page.
	WaitSelector string
	WaitTimeout  time.Duration

	Strategies      []locate.Strategy
	IncludePatterns []*regexp.Regexp
	ExcludePatterns []*regexp.Regexp
	// MinListingTitleLen rejects candidates whose visible listing text is
	// this short or shorter than it, catching icon-only anchors.
	MinListingTitleLen int
	SkipCategories     []string

	Title   extract.TitleSpec
	Content extract.ContentSpec
	// Summary is optional; when nil the summary becomes the lead of the
	// body excerpt, truncated to SummaryMaxLen.
	Summary       *extract.SummarySpec
	SummaryMaxLen int

	// DateSelectors are tried on the detail document; DateFormats parse
	// visible date text; DateScanPatterns scan raw page text as a last
	// resort.
	DateSelectors    []string
	DateFormats      []string
	DateScanPatterns []*regexp.Regexp
	// AssumeUTC treats zoneless parsed dates as UTC before converting to
	// Timezone; otherwise they are read directly in Timezone.
	AssumeUTC bool
	// ListingDateAuthoritative prefers the listing-row date over anything
	// found on the detail page, and filters out-of-window candidates
	// before their detail fetch.
	ListingDateAuthoritative bool

	UnknownDate UnknownDatePolicy

	// AttachmentKeywords gate the related-document harvest; empty disables
	// harvesting for the source.
	AttachmentKeywords []string
}

// Validate reports the first configuration problem found.
func (c SourceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("source name must not be empty")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("source %s: invalid base url: %w", c.Name, err)
	}
	if _, err := url.ParseRequestURI(c.ListingURL); err != nil {
		return fmt.Errorf("source %s: invalid listing url: %w", c.Name, err)
	}
	if c.Timezone == "" {
		return fmt.Errorf("source %s: timezone must not be empty", c.Name)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("source %s: request timeout must be positive", c.Name)
	}
	if c.InterRequestDelay < 0 {
		return fmt.Errorf("source %s: inter-request delay must not be negative", c.Name)
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("source %s: max items must be positive", c.Name)
	}
	if len(c.Strategies) == 0 && len(c.IncludePatterns) == 0 {
		return fmt.Errorf("source %s: need at least one locator strategy or include pattern", c.Name)
	}
	if !c.UnknownDate.valid() {
		return fmt.Errorf("source %s: unknown-date policy %q not recognized", c.Name, c.UnknownDate)
	}
	if (c.RenderedListing || c.RenderedDetail) && c.WaitSelector == "" {
		return fmt.Errorf("source %s: rendered fetches need a wait selector", c.Name)
	}
	return nil
}
