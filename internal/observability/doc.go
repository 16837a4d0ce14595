// Package observability groups the logging, metrics and tracing infrastructure.
//
// Subpackages:
//   - logging: Structured logging utilities with slog and run ID propagation
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry span helpers and HTTP middleware
//
// Example usage:
//
//	logger := logging.NewFromEnv()
//	slog.SetDefault(logger)
//
//	metrics.RecordCandidatesFetched(len(candidates))
package observability
