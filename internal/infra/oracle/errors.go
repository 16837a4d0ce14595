package oracle

import "errors"

// Error classes returned by Client.Complete. Only ErrRateLimited and
// ErrTimeout are retried.
var (
	// ErrRateLimited indicates the backend rejected the call with HTTP 429.
	ErrRateLimited = errors.New("oracle rate limited")

	// ErrTimeout indicates a single attempt exceeded its deadline.
	ErrTimeout = errors.New("oracle timeout")

	// ErrOracle covers every other backend failure.
	ErrOracle = errors.New("oracle error")

	// ErrEmptyResponse indicates the backend answered without any text.
	ErrEmptyResponse = errors.New("oracle returned empty response")
)

// isRetryable reports whether another attempt may succeed.
func isRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}
