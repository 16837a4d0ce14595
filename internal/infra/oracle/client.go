package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"paper-digest/internal/observability/logging"
	"paper-digest/internal/observability/metrics"
	"paper-digest/internal/observability/tracing"
	"paper-digest/internal/resilience/circuitbreaker"
	"paper-digest/internal/resilience/retry"
	"paper-digest/internal/utils/text"
)

// DefaultTimeout bounds a single completion attempt.
const DefaultTimeout = 120 * time.Second

// Config holds the reliability settings of a Client.
type Config struct {
	// Timeout is the hard deadline of one attempt. Zero uses DefaultTimeout.
	Timeout time.Duration

	// Retry is the backoff policy. RetryIf is always replaced so that only
	// ErrRateLimited and ErrTimeout are retried.
	Retry retry.Config

	// Breaker configures the circuit breaker around each attempt.
	Breaker circuitbreaker.Config

	// Limiter paces attempts before they are sent. Nil disables pacing.
	// One limiter may be shared by several clients of the same account.
	Limiter *rate.Limiter
}

// DefaultConfig returns the production settings for the named backend.
func DefaultConfig(backend string) Config {
	return Config{
		Timeout: DefaultTimeout,
		Retry:   retry.OracleConfig(),
		Breaker: circuitbreaker.OracleConfig(backend),
	}
}

// NewLimiter returns a limiter allowing rps requests per second with a
// burst of one, or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Client is a bounded-timeout, retrying wrapper around one Backend.
// It is safe for concurrent use.
type Client struct {
	backend Backend
	cfg     Config
	breaker *circuitbreaker.CircuitBreaker
}

// NewClient wraps backend with timeout, retry, circuit breaker and pacing.
func NewClient(backend Backend, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = retry.OracleConfig()
	}
	cfg.Retry.RetryIf = isRetryable
	if cfg.Breaker.Name == "" {
		cfg.Breaker = circuitbreaker.OracleConfig(backend.Name())
	}
	cfg.Breaker.IsSuccessful = tolerateRetryable(cfg.Breaker.IsSuccessful)

	return &Client{
		backend: backend,
		cfg:     cfg,
		breaker: circuitbreaker.New(cfg.Breaker),
	}
}

// Complete sends prompt to the backend and returns its answer.
// Rate limits and attempt timeouts are retried with backoff; every other
// failure returns immediately. The returned error matches ErrRateLimited,
// ErrTimeout or ErrOracle with errors.Is, or the caller's context error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "oracle.complete",
		attribute.String("oracle.backend", c.backend.Name()),
		attribute.Int("oracle.prompt_runes", text.CountRunes(prompt)))

	var (
		result  string
		attempt int
	)
	err := retry.WithBackoff(ctx, c.cfg.Retry, func() error {
		attempt++
		out, err := c.attempt(ctx, prompt, attempt)
		if err != nil {
			return err
		}
		result = out
		return nil
	})

	span.SetAttributes(attribute.Int("oracle.attempts", attempt))
	tracing.EndSpan(span, err)

	if err != nil {
		return "", fmt.Errorf("%s completion failed after %d attempt(s): %w", c.backend.Name(), attempt, err)
	}
	return result, nil
}

// attempt performs one paced, deadline-bound call through the breaker.
func (c *Client) attempt(ctx context.Context, prompt string, n int) (string, error) {
	logger := logging.FromContext(ctx)
	name := c.backend.Name()

	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for oracle rate limiter: %w", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		reply, err := c.backend.Complete(attemptCtx, prompt)
		if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return reply, err
	})
	duration := time.Since(start)

	if err != nil {
		outcome, classified := c.classify(ctx, attemptCtx, err)
		metrics.RecordOracleRequest(name, outcome, duration)
		logger.Warn("oracle attempt failed",
			slog.String("backend", name),
			slog.Int("attempt", n),
			slog.String("outcome", outcome),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", classified
	}

	answer := out.(string)
	metrics.RecordOracleRequest(name, "success", duration)
	logger.Debug("oracle attempt succeeded",
		slog.String("backend", name),
		slog.Int("attempt", n),
		slog.Int("prompt_length", text.CountRunes(prompt)),
		slog.Int("answer_length", text.CountRunes(answer)),
		slog.Duration("duration", duration))

	return answer, nil
}

// tolerateRetryable extends a breaker success predicate so that rate limits
// and attempt timeouts, which the retry policy handles, never trip the breaker.
func tolerateRetryable(base func(error) bool) func(error) bool {
	return func(err error) bool {
		if err == nil || isRetryable(err) {
			return true
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		if base != nil {
			return base(err)
		}
		return false
	}
}

// classify maps a raw attempt error onto a metrics outcome label and one of
// the package error classes.
func (c *Client) classify(parent, attemptCtx context.Context, err error) (string, error) {
	if parent.Err() != nil {
		return "cancelled", fmt.Errorf("oracle call aborted: %w", parent.Err())
	}

	if circuitbreaker.IsRejection(err) {
		return "rejected", fmt.Errorf("%w: circuit breaker %s rejected call: %w", ErrOracle, c.breaker.Name(), err)
	}

	if errors.Is(err, ErrRateLimited) {
		return "rate_limited", err
	}

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "timeout", fmt.Errorf("%w: no answer within %s", ErrTimeout, c.cfg.Timeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout", fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return "error", fmt.Errorf("%w: %w", ErrOracle, err)
}
