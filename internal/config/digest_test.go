package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadDigestConfig reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "ORACLE_PROVIDER", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "ORACLE_MODEL",
		"ORACLE_BASE_URL", "SELECTION_TEMPERATURE", "SUMMARY_TEMPERATURE", "ORACLE_MAX_TOKENS",
		"ORACLE_TIMEOUT", "ORACLE_MAX_CONCURRENCY", "ORACLE_RPS", "SELECTION_MIN_GROUPS",
		"SELECTION_MAX_ROUNDS", "SUMMARY_CHUNK_SIZE", "ARXIV_CATEGORY", "ARXIV_MAX_RESULTS",
		"DELIVERY_CHANNEL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DISCORD_WEBHOOK_URL",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDigestConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")
	t.Setenv("ORACLE_TIMEOUT", "45s")
	t.Setenv("ORACLE_MAX_CONCURRENCY", "8")
	t.Setenv("SUMMARY_CHUNK_SIZE", "3000")

	cfg, err := LoadDigestConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.OracleProvider)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "gpt-4", cfg.Model)
	assert.Equal(t, 0.0, cfg.SelectionTemperature)
	assert.Equal(t, 0.7, cfg.SummaryTemperature)
	assert.Equal(t, 45*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 3000, cfg.ChunkSize)
	assert.Equal(t, "cs.*", cfg.Category)
	assert.Equal(t, 81, cfg.MaxResults)
	assert.Equal(t, DeliveryTelegram, cfg.Delivery)
	assert.Equal(t, "123:abc", cfg.DeliveryToken)
	assert.Equal(t, "-1001", cfg.RecipientID)
}

func TestLoadDigestConfig_JSONFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "config.json",
		`{"api_key": "sk-file", "token": "555:file", "channel_id": "@papers"}`))

	cfg, err := LoadDigestConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.APIKey)
	assert.Equal(t, "555:file", cfg.DeliveryToken)
	assert.Equal(t, "@papers", cfg.RecipientID)
}

func TestLoadDigestConfig_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "config.yaml",
		"api_key: sk-file\ntoken: 555:file\nchannel_id: \"@papers\"\n"))
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadDigestConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, "555:file", cfg.DeliveryToken)
}

func TestLoadDigestConfig_Claude(t *testing.T) {
	clearEnv(t)
	t.Setenv("ORACLE_PROVIDER", "claude")
	t.Setenv("OPENAI_API_KEY", "sk-wrong")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("DELIVERY_CHANNEL", "stdout")

	cfg, err := LoadDigestConfig()
	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, cfg.OracleProvider)
	assert.Equal(t, "sk-ant", cfg.APIKey)
	assert.Empty(t, cfg.Model, "claude uses its backend default model")
}

func TestLoadDigestConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "missing secrets",
			env:     map[string]string{},
			wantMsg: "API key is required",
		},
		{
			name:    "malformed number",
			env:     map[string]string{"OPENAI_API_KEY": "k", "DELIVERY_CHANNEL": "none", "ORACLE_MAX_CONCURRENCY": "lots"},
			wantMsg: "ORACLE_MAX_CONCURRENCY",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"ORACLE_PROVIDER": "gemini"},
			wantMsg: "ORACLE_PROVIDER",
		},
		{
			name:    "discord without webhook",
			env:     map[string]string{"OPENAI_API_KEY": "k", "DELIVERY_CHANNEL": "discord"},
			wantMsg: "discord webhook url is required",
		},
		{
			name:    "missing config file",
			env:     map[string]string{"CONFIG_FILE": "/nonexistent/config.json"},
			wantMsg: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadDigestConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDigestConfig_Validate_CollectsAll(t *testing.T) {
	cfg := DefaultDigestConfig()
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "API key is required")
	assert.Contains(t, msg, "telegram bot token is required")
	assert.Contains(t, msg, "telegram chat id is required")
}

func TestDigestConfig_LogValueHidesSecrets(t *testing.T) {
	cfg := DefaultDigestConfig()
	cfg.APIKey = "sk-very-secret"
	cfg.DeliveryToken = "999:token-secret"

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("config", slog.Any("config", cfg))

	out := buf.String()
	assert.False(t, strings.Contains(out, "secret"), out)
	assert.Contains(t, out, `"api_key_set":true`)
}
