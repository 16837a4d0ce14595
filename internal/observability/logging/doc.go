// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats (LOG_FORMAT)
//   - Run ID propagation
//   - Context-aware logging
//   - Configurable log levels (LOG_LEVEL)
//
// Example usage:
//
//	logger := logging.NewFromEnv()
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRunID(ctx, logging.NewRunID())
//	logging.FromContext(ctx).Info("digest run started")
package logging
