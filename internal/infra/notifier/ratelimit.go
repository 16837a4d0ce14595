package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket in front of a chat API.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows requestsPerSecond sustained with bursts of burst.
//
//	limiter := NewRateLimiter(1.0, 3) // Telegram: about one message per second per chat
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Allow blocks until a token is available or ctx is done.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
