package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultClaudeMaxTokens is used when BackendConfig.MaxTokens is unset;
// the messages API requires an explicit limit.
const defaultClaudeMaxTokens = 1024

// ClaudeBackend implements Backend with the Anthropic messages API.
type ClaudeBackend struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewClaudeBackend creates a Claude backend with SDK retries disabled.
func NewClaudeBackend(cfg BackendConfig) *ClaudeBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	return &ClaudeBackend{
		client:      anthropic.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// Name implements Backend.
func (b *ClaudeBackend) Name() string {
	return "claude"
}

// Complete implements Backend.
func (b *ClaudeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   b.maxTokens,
		Temperature: anthropic.Float(b.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyClaudeError(err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return sb.String(), nil
}

func classifyClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return fmt.Errorf("claude api error: %w", err)
}
