// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Oracle metrics track completion calls made on behalf of selection and summarization
var (
	// OracleRequestsTotal counts completion attempts by backend and outcome
	OracleRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Total number of completion oracle attempts",
		},
		[]string{"backend", "outcome"}, // outcome: success, rate_limited, timeout, error, rejected
	)

	// OracleRequestDuration measures a single completion attempt in seconds
	OracleRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Completion oracle attempt duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"backend"},
	)
)

// Pipeline metrics track the stages of a digest run
var (
	// CandidatesFetched records how many candidates the last feed request returned
	CandidatesFetched = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_candidates_fetched",
			Help: "Number of candidates returned by the last feed request",
		},
	)

	// SelectionRoundsTotal counts selection rounds
	SelectionRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "selection_rounds_total",
			Help: "Total number of selection rounds executed",
		},
	)

	// SelectionGroupsTotal counts oracle-ranked groups
	SelectionGroupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "selection_groups_total",
			Help: "Total number of candidate groups sent for ranking",
		},
	)

	// ParseAmbiguitiesTotal counts ranking responses that could not be trusted
	ParseAmbiguitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_parse_ambiguities_total",
			Help: "Total number of ranking responses rejected as ambiguous",
		},
		[]string{"reason"}, // reason: empty, invalid_identifier
	)

	// SelectionFallbacksTotal counts runs that ended by truncation or backfill
	SelectionFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_fallbacks_total",
			Help: "Total number of selections finished by a fallback rule",
		},
		[]string{"kind"}, // kind: backfill, truncate, insufficient
	)

	// SummaryLevels observes the number of merge rounds per document
	SummaryLevels = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summary_levels",
			Help:    "Number of merge rounds needed to summarize a document",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	// SummaryChunks observes the number of chunks a document was split into
	SummaryChunks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summary_chunks",
			Help:    "Number of chunks per summarized document",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// DocumentsExtractedTotal counts full-text extractions by format and result
	DocumentsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_extracted_total",
			Help: "Total number of document text extractions",
		},
		[]string{"format", "result"}, // format: pdf, html; result: success, failure
	)

	// DocumentFetchDuration measures document download plus extraction time
	DocumentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "document_fetch_duration_seconds",
			Help:    "Time taken to download and extract a document",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8, 25.6},
		},
	)

	// DeliveriesTotal counts outbound messages by channel and result
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of delivery attempts",
		},
		[]string{"channel", "result"},
	)

	// RunDuration measures a complete digest run
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Duration of a digest run in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"status"},
	)
)
