package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"paper-digest/internal/observability/logging"
	"paper-digest/internal/resilience/circuitbreaker"
)

// RateLimitError represents a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx response, or a 2xx response the API marked as failed.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

const truncationSuffix = "..."

// RetryPolicy bounds redelivery of one message.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// MaxRetryAfter caps how long a 429 retry_after is honoured.
	MaxRetryAfter time.Duration
}

// DefaultRetryPolicy returns two attempts with a 5s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   2,
		BaseDelay:     5 * time.Second,
		MaxRetryAfter: 60 * time.Second,
	}
}

func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError reports whether err is a 5xx or transport failure.
// Client errors are final; rate limits are handled by is429Error.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if circuitbreaker.IsRejection(err) {
		return false
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}

	return true
}

// sendWithRetry calls send until it succeeds, fails permanently or the
// policy is exhausted. 429 responses wait for their retry_after.
func sendWithRetry(ctx context.Context, channel string, policy RetryPolicy, send func(context.Context) error) error {
	logger := logging.FromContext(ctx).With(slog.String("channel", channel))
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := send(ctx)
		if err == nil {
			logger.Info("message delivered", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}

		var delay time.Duration
		if rateLimitErr, ok := is429Error(err); ok {
			delay = rateLimitErr.RetryAfter
			if policy.MaxRetryAfter > 0 && delay > policy.MaxRetryAfter {
				delay = policy.MaxRetryAfter
			}
			logger.Warn("rate limit hit, backing off",
				slog.Duration("retry_after", delay),
				slog.Int("attempt", attempt))
		} else if !isRetryableError(err) {
			logger.Error("delivery failed with non-retryable error",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		} else {
			delay = policy.BaseDelay * time.Duration(attempt)
			logger.Warn("delivery failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
		}
	}

	logger.Error("delivery failed after all retries",
		slog.Any("error", lastErr),
		slog.Int("max_attempts", policy.MaxAttempts))

	return fmt.Errorf("%s delivery failed after %d attempts: %w", channel, policy.MaxAttempts, lastErr)
}
