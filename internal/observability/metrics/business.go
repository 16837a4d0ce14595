package metrics

import (
	"time"
)

// RecordOracleRequest records one completion attempt.
func RecordOracleRequest(backend, outcome string, duration time.Duration) {
	OracleRequestsTotal.WithLabelValues(backend, outcome).Inc()
	OracleRequestDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordCandidatesFetched records the size of the day's candidate list.
func RecordCandidatesFetched(count int) {
	CandidatesFetched.Set(float64(count))
}

// RecordSelectionRound records one selection round and how many groups it ranked.
func RecordSelectionRound(groups int) {
	SelectionRoundsTotal.Inc()
	SelectionGroupsTotal.Add(float64(groups))
}

// RecordParseAmbiguity records a ranking response that contributed no vote.
func RecordParseAmbiguity(reason string) {
	ParseAmbiguitiesTotal.WithLabelValues(reason).Inc()
}

// RecordSelectionFallback records which fallback rule completed a selection.
func RecordSelectionFallback(kind string) {
	SelectionFallbacksTotal.WithLabelValues(kind).Inc()
}

// RecordSummary records the shape of one hierarchical summary.
func RecordSummary(chunks, levels int) {
	SummaryChunks.Observe(float64(chunks))
	SummaryLevels.Observe(float64(levels))
}

// RecordDocumentExtraction records a document extraction attempt.
func RecordDocumentExtraction(format string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	DocumentsExtractedTotal.WithLabelValues(format, result).Inc()
	DocumentFetchDuration.Observe(duration.Seconds())
}

// RecordDelivery records the result of a delivery attempt.
func RecordDelivery(channel string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	DeliveriesTotal.WithLabelValues(channel, result).Inc()
}

// RecordRun records the duration of a digest run.
func RecordRun(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	RunDuration.WithLabelValues(status).Observe(duration.Seconds())
}
