// Package metrics provides the Prometheus metrics registry and recording helpers.
//
// This package centralizes the metrics of a digest run:
//   - Completion oracle attempts (count, duration, outcome)
//   - Selection rounds, ranking parse ambiguities and fallbacks
//   - Summary tree shape (chunks and merge rounds)
//   - Document extraction and delivery results
//
// All metrics are registered with the Prometheus default registry and exposed
// by the worker's /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	text, err := extractor.Extract(ctx, url)
//	metrics.RecordDocumentExtraction("pdf", err == nil, time.Since(start))
package metrics
