package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIBackend_Complete(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ranking\":[3,1,7]}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer server.Close()

	backend := NewOpenAIBackend(BackendConfig{APIKey: "test-key", Model: "gpt-4", BaseURL: server.URL + "/v1"})

	out, err := backend.Complete(context.Background(), "rank these")

	require.NoError(t, err)
	assert.Equal(t, `{"ranking":[3,1,7]}`, out)
	assert.Equal(t, "gpt-4", got["model"])
	assert.Greater(t, got["temperature"], float64(0), "zero temperature must still be sent")
	assert.Less(t, got["temperature"], 0.001)

	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "rank these", msgs[0].(map[string]interface{})["content"])
}

func TestOpenAIBackend_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`)
	}))
	defer server.Close()

	backend := NewOpenAIBackend(BackendConfig{APIKey: "k", BaseURL: server.URL + "/v1"})

	_, err := backend.Complete(context.Background(), "p")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestOpenAIBackend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"message": "bad request", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	_, err := NewOpenAIBackend(BackendConfig{APIKey: "k", BaseURL: server.URL + "/v1"}).Complete(context.Background(), "p")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestOpenAIBackend_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "x", "object": "chat.completion", "choices": []}`)
	}))
	defer server.Close()

	_, err := NewOpenAIBackend(BackendConfig{APIKey: "k", BaseURL: server.URL + "/v1"}).Complete(context.Background(), "p")

	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAITemperature(t *testing.T) {
	assert.Greater(t, openAITemperature(0), float32(0))
	assert.Equal(t, float32(0.7), openAITemperature(0.7))
}

func TestClaudeBackend_Complete(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5-20250929",
			"content": [{"type": "text", "text": "It is about "}, {"type": "text", "text": "transformers."}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 12, "output_tokens": 6}
		}`)
	}))
	defer server.Close()

	backend := NewClaudeBackend(BackendConfig{APIKey: "test-key", Temperature: 0.7, BaseURL: server.URL})

	out, err := backend.Complete(context.Background(), "explain")

	require.NoError(t, err)
	assert.Equal(t, "It is about transformers.", out)
	assert.Equal(t, 0.7, got["temperature"])
	assert.Equal(t, float64(defaultClaudeMaxTokens), got["max_tokens"])
}

func TestClaudeBackend_RateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`)
	}))
	defer server.Close()

	_, err := NewClaudeBackend(BackendConfig{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), "p")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls, "SDK retries must be disabled")
}
