// Package tracing provides OpenTelemetry tracing helpers.
//
// Spans are created for digest runs, selection rounds and oracle calls.
// No exporter is configured here; the global provider decides where spans go
// (a no-op provider unless the process installs one).
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "selection.round", attribute.Int("round", n))
//	err := doRound(ctx)
//	tracing.EndSpan(span, err)
package tracing
