package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paper-digest/internal/domain/entity"
	"paper-digest/internal/observability/logging"
	"paper-digest/internal/observability/metrics"
	"paper-digest/internal/resilience/circuitbreaker"
	"paper-digest/internal/utils/text"
)

const (
	// DefaultTelegramBaseURL is the Bot API endpoint.
	DefaultTelegramBaseURL = "https://api.telegram.org"

	// maxTelegramMessageLength is the Bot API limit in characters.
	maxTelegramMessageLength = 4096

	channelTelegram = "telegram"
)

// TelegramConfig contains configuration for the Telegram Bot API.
type TelegramConfig struct {
	// Token is the bot token. It is part of the request path and never logged.
	Token string

	// ChatID is used when a message has no Recipient.
	ChatID string

	// BaseURL overrides DefaultTelegramBaseURL.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	Retry RetryPolicy
}

// TelegramNotifier sends messages with the Bot API sendMessage method.
type TelegramNotifier struct {
	config         TelegramConfig
	httpClient     *http.Client
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewTelegramNotifier creates a notifier limited to one message per second
// with a burst of 3, under the per-chat limit of the Bot API.
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	if config.BaseURL == "" {
		config.BaseURL = DefaultTelegramBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Retry.MaxAttempts < 1 {
		config.Retry = DefaultRetryPolicy()
	}
	return &TelegramNotifier{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		rateLimiter:    NewRateLimiter(1.0, 3),
		circuitBreaker: circuitbreaker.New(circuitbreaker.DeliveryConfig(channelTelegram)),
	}
}

type telegramSendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (n *TelegramNotifier) buildPayload(msg entity.Message) telegramSendMessage {
	chatID := msg.Recipient
	if chatID == "" {
		chatID = n.config.ChatID
	}
	return telegramSendMessage{
		ChatID:                chatID,
		Text:                  text.Truncate(msg.Text, maxTelegramMessageLength, truncationSuffix),
		DisableWebPagePreview: msg.DisablePreview,
	}
}

// sendMessage performs one API call and classifies the response.
func (n *TelegramNotifier) sendMessage(ctx context.Context, payload telegramSendMessage) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	endpoint := strings.TrimRight(n.config.BaseURL, "/") + "/bot" + n.config.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		// The URL embeds the token.
		return fmt.Errorf("execute http request: %w", redactToken(err, n.config.Token))
	}
	defer func() { _ = resp.Body.Close() }()

	var tr telegramResponse
	var decodeErr error
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		decodeErr = fmt.Errorf("read response body: %w", err)
	} else if err := json.Unmarshal(body, &tr); err != nil {
		decodeErr = fmt.Errorf("decode response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || tr.ErrorCode == http.StatusTooManyRequests {
		retryAfter := 5 * time.Second
		if tr.Parameters != nil && tr.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(tr.Parameters.RetryAfter) * time.Second
		}
		return &RateLimitError{Message: "Telegram rate limit exceeded", RetryAfter: retryAfter}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API server error: %s", describe(tr, body)),
		}
	}

	if resp.StatusCode >= 400 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API client error: %s", describe(tr, body)),
		}
	}

	// The message may have been posted, so an unreadable 2xx is not retried.
	if decodeErr != nil {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API returned an unreadable response: %v", decodeErr),
		}
	}

	if !tr.OK {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API rejected message: %s", describe(tr, body)),
		}
	}

	return nil
}

func describe(tr telegramResponse, body []byte) string {
	if tr.Description != "" {
		return tr.Description
	}
	return string(body)
}

func redactToken(err error, token string) error {
	var urlErr *url.Error
	if token != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, token, "<redacted>")
	}
	return err
}

// Deliver sends msg to its Recipient, or to the configured chat when empty.
func (n *TelegramNotifier) Deliver(ctx context.Context, msg entity.Message) error {
	payload := n.buildPayload(msg)
	if payload.ChatID == "" {
		return &ClientError{Message: "telegram: no chat id"}
	}

	logger := logging.FromContext(ctx)
	logger.Debug("sending telegram message",
		slog.String("chat_id", payload.ChatID),
		slog.Int("length", text.CountRunes(payload.Text)))

	if err := n.rateLimiter.Allow(ctx); err != nil {
		metrics.RecordDelivery(channelTelegram, false)
		return fmt.Errorf("rate limiter error: %w", err)
	}

	err := sendWithRetry(ctx, channelTelegram, n.config.Retry, func(ctx context.Context) error {
		_, err := n.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, n.sendMessage(ctx, payload)
		})
		return err
	})
	metrics.RecordDelivery(channelTelegram, err == nil)
	return err
}
