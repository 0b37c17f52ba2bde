// Package metrics exposes Prometheus collectors for the extraction pipelines.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsTotal             *prometheus.CounterVec
	recordsTotal           *prometheus.CounterVec
	fetchErrorsTotal       *prometheus.CounterVec
	attachmentsTotal       *prometheus.CounterVec
	politenessDelaySeconds *prometheus.HistogramVec
	dateParseFailuresTotal *prometheus.CounterVec
	listingCandidatesGauge *prometheus.GaugeVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		itemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_items_total",
				Help: "Candidate items processed, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_records_total",
				Help: "Records emitted per source.",
			},
			[]string{"source"},
		)

		fetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_fetch_errors_total",
				Help: "Fetch failures per source.",
			},
			[]string{"source"},
		)

		attachmentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_attachments_total",
				Help: "Attachments harvested per source.",
			},
			[]string{"source"},
		)

		politenessDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_politeness_delay_seconds",
				Help:    "Time spent in mandatory inter-request delays.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"source"},
		)

		dateParseFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_date_parse_failures_total",
				Help: "Date strings that no strategy could parse.",
			},
			[]string{"source"},
		)

		listingCandidatesGauge = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipeline_listing_candidates",
				Help: "Candidates located on the most recent listing fetch.",
			},
			[]string{"source"},
		)
	})
}

// Item outcome labels.
const (
	OutcomeEmitted  = "emitted"
	OutcomeFiltered = "filtered"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// CountItem records the disposition of one candidate.
func CountItem(source, outcome string) {
	if itemsTotal == nil {
		return
	}
	itemsTotal.WithLabelValues(source, outcome).Inc()
}

// CountRecord increments the emitted-record counter for source.
func CountRecord(source string) {
	if recordsTotal == nil {
		return
	}
	recordsTotal.WithLabelValues(source).Inc()
}

// CountFetchError increments the fetch-error counter for source.
func CountFetchError(source string) {
	if fetchErrorsTotal == nil {
		return
	}
	fetchErrorsTotal.WithLabelValues(source).Inc()
}

// CountAttachment increments the harvested-attachment counter for source.
func CountAttachment(source string) {
	if attachmentsTotal == nil {
		return
	}
	attachmentsTotal.WithLabelValues(source).Inc()
}

// ObservePolitenessDelay records one inter-request delay.
func ObservePolitenessDelay(source string, d time.Duration) {
	if politenessDelaySeconds == nil {
		return
	}
	politenessDelaySeconds.WithLabelValues(source).Observe(d.Seconds())
}

// CountDateParseFailure increments the unparseable-date counter for source.
func CountDateParseFailure(source string) {
	if dateParseFailuresTotal == nil {
		return
	}
	dateParseFailuresTotal.WithLabelValues(source).Inc()
}

// SetListingCandidates records how many candidates the locator produced.
func SetListingCandidates(source string, n int) {
	if listingCandidatesGauge == nil {
		return
	}
	listingCandidatesGauge.WithLabelValues(source).Set(float64(n))
}
