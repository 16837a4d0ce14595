// Package oracle wraps text-completion APIs behind a bounded-timeout,
// retrying client used as the judge for selection and as the summarizer.
package oracle

import "context"

// Backend performs exactly one completion request.
// Implementations report HTTP 429 as an error wrapping ErrRateLimited and
// must honour ctx cancellation.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Complete sends prompt as a single user message and returns the reply text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// BackendConfig holds settings shared by the SDK-backed implementations.
type BackendConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}
