package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"paper-digest/internal/domain/entity"
	"paper-digest/internal/observability/metrics"
	"paper-digest/internal/resilience/circuitbreaker"
	"paper-digest/internal/utils/text"
)

const (
	// maxDiscordContentLength is the webhook limit for message content.
	maxDiscordContentLength = 2000

	// discordFlagSuppressEmbeds stops Discord from unfurling links.
	discordFlagSuppressEmbeds = 1 << 2

	channelDiscord = "discord"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// WebhookURL includes the authentication token.
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration

	Retry RetryPolicy
}

// DiscordNotifier posts messages to a Discord webhook. The webhook is bound
// to a channel, so Message.Recipient is ignored.
type DiscordNotifier struct {
	config         DiscordConfig
	httpClient     *http.Client
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewDiscordNotifier creates a notifier limited to 0.5 requests/second with a
// burst of 3 (webhook limit: 30 requests per minute).
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Retry.MaxAttempts < 1 {
		config.Retry = DefaultRetryPolicy()
	}
	return &DiscordNotifier{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		rateLimiter:    NewRateLimiter(0.5, 3),
		circuitBreaker: circuitbreaker.New(circuitbreaker.DeliveryConfig(channelDiscord)),
	}
}

// DiscordWebhookPayload is the JSON body sent to the webhook.
type DiscordWebhookPayload struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// DiscordErrorResponse represents the error response from Discord API.
type DiscordErrorResponse struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"` // seconds
}

func buildDiscordPayload(msg entity.Message) DiscordWebhookPayload {
	payload := DiscordWebhookPayload{
		Content: text.Truncate(msg.Text, maxDiscordContentLength, truncationSuffix),
	}
	if msg.DisablePreview {
		payload.Flags = discordFlagSuppressEmbeds
	}
	return payload
}

// sendWebhookRequest performs one webhook call.
//
// Error types:
//   - 429: *RateLimitError with retry_after
//   - other 4xx: *ClientError (not retried)
//   - 5xx: *ServerError (retried)
func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, payload DiscordWebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "Discord rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API client error: %s", string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API server error: %s", string(body)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// extractRetryAfter prefers the JSON retry_after, then the Retry-After
// header, then 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var discordErr DiscordErrorResponse
	if err := json.Unmarshal(body, &discordErr); err == nil && discordErr.RetryAfter > 0 {
		return time.Duration(discordErr.RetryAfter * float64(time.Second))
	}

	if retryAfterHeader := resp.Header.Get("Retry-After"); retryAfterHeader != "" {
		if seconds, err := strconv.Atoi(retryAfterHeader); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return 5 * time.Second
}

// Deliver posts msg to the webhook.
func (d *DiscordNotifier) Deliver(ctx context.Context, msg entity.Message) error {
	if err := d.rateLimiter.Allow(ctx); err != nil {
		metrics.RecordDelivery(channelDiscord, false)
		return fmt.Errorf("rate limiter error: %w", err)
	}

	payload := buildDiscordPayload(msg)
	err := sendWithRetry(ctx, channelDiscord, d.config.Retry, func(ctx context.Context) error {
		_, err := d.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, d.sendWebhookRequest(ctx, payload)
		})
		return err
	})
	metrics.RecordDelivery(channelDiscord, err == nil)
	return err
}
