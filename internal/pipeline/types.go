// Package pipeline composes candidate discovery, field extraction, date
// normalization, cutoff filtering, and attachment harvesting into one
// per-source extraction run.
package pipeline

import (
	"context"
	"time"

	"github.com/regwatch/regwatch-crawler/internal/harvest"
)

// Record is one fully extracted, normalized item ready for downstream
// summarization. Records are immutable once emitted.
type Record struct {
	Title       string               `json:"title"`
	URL         string               `json:"url"`
	PublishedAt *time.Time           `json:"published_at"`
	Summary     string               `json:"summary"`
	BodyExcerpt string               `json:"body_excerpt"`
	Category    string               `json:"category,omitempty"`
	Attachments []harvest.Attachment `json:"attachments"`
}

// UnknownDatePolicy disposes of records whose timestamp could not be
// determined. Policies are source-scoped; sources intentionally disagree.
type UnknownDatePolicy string

const (
	// UnknownInclude keeps the record with a nil timestamp regardless of
	// the lookback window.
	UnknownInclude UnknownDatePolicy = "include"
	// UnknownExclude drops the record.
	UnknownExclude UnknownDatePolicy = "exclude"
	// UnknownAssumeNow substitutes the current time, which keeps the
	// record in any window.
	UnknownAssumeNow UnknownDatePolicy = "assume-now"
	// UnknownFetchDetail defers the decision to the detail page; when the
	// detail page cannot supply a date either, the current time is
	// substituted.
	UnknownFetchDetail UnknownDatePolicy = "fetch-detail-then-decide"
)

func (p UnknownDatePolicy) valid() bool {
	switch p {
	case UnknownInclude, UnknownExclude, UnknownAssumeNow, UnknownFetchDetail:
		return true
	}
	return false
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Sleeper abstracts the mandatory inter-request pause so tests can observe
// politeness without waiting.
type Sleeper interface {
	Pause(ctx context.Context, delay time.Duration)
}

// TimerSleeper pauses on a real timer, honoring context cancellation.
type TimerSleeper struct{}

// Pause blocks for delay or until ctx is done.
func (TimerSleeper) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
