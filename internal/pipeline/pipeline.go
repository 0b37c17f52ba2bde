package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/regwatch/regwatch-crawler/internal/datenorm"
	"github.com/regwatch/regwatch-crawler/internal/extract"
	"github.com/regwatch/regwatch-crawler/internal/fetch"
	"github.com/regwatch/regwatch-crawler/internal/harvest"
	"github.com/regwatch/regwatch-crawler/internal/locate"
	"github.com/regwatch/regwatch-crawler/internal/metrics"
)

// Deps holds the shared machinery a Pipeline runs on. Static is required;
// Renderer only when the source asks for rendered fetches; Harvester is
// optional.
type Deps struct {
	Static    fetch.Fetcher
	Renderer  fetch.Fetcher
	Harvester *harvest.Harvester
	Clock     Clock
	Sleeper   Sleeper
	Logger    *zap.Logger
}

// Pipeline runs the listing-to-records extraction for a single source. One
// Pipeline per source; runs are strictly sequential within a source.
type Pipeline struct {
	cfg  SourceConfig
	deps Deps
	base *url.URL
	loc  *time.Location
	norm *datenorm.Normalizer
}

// New validates cfg and builds a Pipeline bound to deps.
func New(cfg SourceConfig, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Static == nil {
		return nil, fmt.Errorf("source %s: static fetcher is required", cfg.Name)
	}
	if (cfg.RenderedListing || cfg.RenderedDetail) && deps.Renderer == nil {
		return nil, fmt.Errorf("source %s: rendered fetches configured but no renderer supplied", cfg.Name)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("source %s: parse base url: %w", cfg.Name, err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("source %s: load timezone %q: %w", cfg.Name, cfg.Timezone, err)
	}
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Sleeper == nil {
		deps.Sleeper = TimerSleeper{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	naiveIn := loc
	if cfg.AssumeUTC {
		naiveIn = time.UTC
	}
	norm := datenorm.New(cfg.DateFormats, naiveIn, loc)
	norm.Now = deps.Clock.Now

	return &Pipeline{
		cfg:  cfg,
		deps: deps,
		base: base,
		loc:  loc,
		norm: norm,
	}, nil
}

// Source returns the machine identifier of the configured source.
func (p *Pipeline) Source() string { return p.cfg.Name }

// Extract fetches the listing, walks its candidates in order, and returns
// the records that survive extraction and the lookback window. Only listing
// acquisition fails the run; per-candidate trouble is logged, counted, and
// skipped.
func (p *Pipeline) Extract(ctx context.Context, daysBack int) ([]Record, error) {
	if daysBack <= 0 {
		return nil, fmt.Errorf("source %s: days back must be positive, got %d", p.cfg.Name, daysBack)
	}
	now := p.deps.Clock.Now().In(p.loc)
	window := NewCutoffWindow(daysBack, now)

	logger := p.deps.Logger.With(zap.String("source", p.cfg.Name))
	logger.Info("starting extraction",
		zap.String("listing_url", p.cfg.ListingURL),
		zap.Int("days_back", daysBack),
	)

	page, err := p.listingFetcher().Fetch(ctx, p.cfg.ListingURL)
	if err != nil {
		metrics.CountFetchError(p.cfg.Name)
		return nil, fmt.Errorf("source %s: fetch listing: %w", p.cfg.Name, err)
	}
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("source %s: parse listing: %w", p.cfg.Name, err)
	}

	cands := locate.Candidates(doc, locate.Config{
		BaseURL:         p.base,
		Strategies:      p.cfg.Strategies,
		IncludePatterns: p.cfg.IncludePatterns,
		ExcludePatterns: p.cfg.ExcludePatterns,
		MinTitleLen:     p.cfg.MinListingTitleLen,
		SkipCategories:  p.cfg.SkipCategories,
		MaxItems:        p.cfg.MaxItems,
	})
	metrics.SetListingCandidates(p.cfg.Name, len(cands))
	logger.Info("located candidates", zap.Int("count", len(cands)))

	records := make([]Record, 0, len(cands))
	emitted := make(map[string]struct{}, len(cands))
	fetched := 0
	for _, cand := range cands {
		listingDate, skip := p.listingGate(cand, window, logger)
		if skip {
			metrics.CountItem(p.cfg.Name, metrics.OutcomeFiltered)
			continue
		}
		if fetched > 0 {
			metrics.ObservePolitenessDelay(p.cfg.Name, p.cfg.InterRequestDelay)
			p.deps.Sleeper.Pause(ctx, p.cfg.InterRequestDelay)
		}
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		fetched++

		rec, outcome := p.processDetail(ctx, cand, listingDate, window, now, logger)
		if outcome == metrics.OutcomeEmitted {
			// Distinct candidate URLs can redirect to the same canonical
			// page; record URLs stay unique within a run.
			if _, dup := emitted[rec.URL]; dup {
				logger.Debug("duplicate record url", zap.String("url", rec.URL))
				outcome = metrics.OutcomeSkipped
			} else {
				emitted[rec.URL] = struct{}{}
				metrics.CountRecord(p.cfg.Name)
				records = append(records, rec)
			}
		}
		metrics.CountItem(p.cfg.Name, outcome)
	}

	logger.Info("extraction finished",
		zap.Int("candidates", len(cands)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// listingGate parses the listing-row date hint and, when the source treats
// it as authoritative, filters out-of-window candidates before their detail
// fetch.
func (p *Pipeline) listingGate(cand locate.Candidate, window CutoffWindow, logger *zap.Logger) (*time.Time, bool) {
	var listingDate *time.Time
	if cand.HintDateText != "" {
		if t, ok := p.norm.Parse(cand.HintDateText); ok {
			listingDate = &t
		} else {
			metrics.CountDateParseFailure(p.cfg.Name)
			logger.Debug("unparseable listing date",
				zap.String("url", cand.URL),
				zap.String("raw", cand.HintDateText),
			)
		}
	}
	if p.cfg.ListingDateAuthoritative && listingDate != nil && !window.Contains(*listingDate) {
		logger.Debug("candidate outside window", zap.String("url", cand.URL))
		return nil, true
	}
	return listingDate, false
}

// processDetail fetches and extracts one candidate. The returned outcome is
// one of the metrics outcome labels.
func (p *Pipeline) processDetail(ctx context.Context, cand locate.Candidate, listingDate *time.Time, window CutoffWindow, now time.Time, logger *zap.Logger) (Record, string) {
	page, err := p.detailFetcher().Fetch(ctx, cand.URL)
	if err != nil {
		metrics.CountFetchError(p.cfg.Name)
		logger.Warn("detail fetch failed", zap.String("url", cand.URL), zap.Error(err))
		return Record{}, metrics.OutcomeFailed
	}
	doc, err := page.Document()
	if err != nil {
		logger.Warn("detail parse failed", zap.String("url", cand.URL), zap.Error(err))
		return Record{}, metrics.OutcomeFailed
	}

	title, ok := extract.Title(doc, p.cfg.Title)
	if !ok {
		logger.Debug("candidate rejected by title", zap.String("url", cand.URL))
		return Record{}, metrics.OutcomeSkipped
	}

	published := p.resolveDate(listingDate, doc, now)
	if published == nil && p.cfg.UnknownDate == UnknownExclude {
		logger.Debug("candidate dropped, no date", zap.String("url", cand.URL))
		return Record{}, metrics.OutcomeFiltered
	}
	if !window.Retain(published, p.cfg.UnknownDate) {
		logger.Debug("candidate outside window", zap.String("url", cand.URL))
		return Record{}, metrics.OutcomeFiltered
	}

	content := extract.Content(doc, p.cfg.Content)
	summary := p.summarize(doc, content)

	var attachments []harvest.Attachment
	if p.deps.Harvester != nil && p.deps.Harvester.Eligible(title) {
		attachments = p.deps.Harvester.Harvest(ctx, doc, p.base)
	}

	rec := Record{
		Title:       title,
		URL:         page.FinalURL,
		PublishedAt: published,
		Summary:     summary,
		BodyExcerpt: content,
		Category:    cand.HintCategory,
		Attachments: attachments,
	}
	if rec.URL == "" {
		rec.URL = cand.URL
	}
	return rec, metrics.OutcomeEmitted
}

// resolveDate settles the publication timestamp. When the listing date is
// authoritative it wins outright; otherwise the detail page is consulted
// first and the listing hint serves only as a last resort before the
// unknown-date policy.
func (p *Pipeline) resolveDate(listingDate *time.Time, doc *goquery.Document, now time.Time) *time.Time {
	if p.cfg.ListingDateAuthoritative && listingDate != nil {
		return listingDate
	}
	if len(p.cfg.DateSelectors) > 0 {
		if t, ok := p.norm.FromDocument(doc, p.cfg.DateSelectors); ok {
			return &t
		}
	}
	if len(p.cfg.DateScanPatterns) > 0 {
		if t, ok := p.norm.ScanText(doc.Text(), p.cfg.DateScanPatterns); ok {
			return &t
		}
	}
	if listingDate != nil {
		return listingDate
	}
	metrics.CountDateParseFailure(p.cfg.Name)
	switch p.cfg.UnknownDate {
	case UnknownAssumeNow, UnknownFetchDetail:
		t := now
		return &t
	}
	return nil
}

func (p *Pipeline) summarize(doc *goquery.Document, content string) string {
	if p.cfg.Summary != nil {
		if s := extract.Summary(doc, *p.cfg.Summary); s != "" {
			return s
		}
	}
	maxLen := p.cfg.SummaryMaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	if content == extract.NoContent {
		return ""
	}
	return extract.Lead(content, maxLen)
}

func (p *Pipeline) listingFetcher() fetch.Fetcher {
	if p.cfg.RenderedListing {
		return p.deps.Renderer
	}
	return p.deps.Static
}

func (p *Pipeline) detailFetcher() fetch.Fetcher {
	if p.cfg.RenderedDetail {
		return p.deps.Renderer
	}
	return p.deps.Static
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
