package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend implements Backend with the OpenAI chat completion API.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIBackend creates an OpenAI backend. The SDK performs no retries of
// its own; Client owns the retry policy.
func NewOpenAIBackend(cfg BackendConfig) *OpenAIBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: openAITemperature(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

// openAITemperature maps t to the request field. The SDK drops a zero value
// from the request body, so an explicit zero is sent as the smallest
// positive float32.
func openAITemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string {
	return "openai"
}

// Complete implements Backend.
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	return fmt.Errorf("openai api error: %w", err)
}
