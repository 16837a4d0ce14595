// Package config loads the digest configuration from an optional file and
// the environment. Environment variables take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	envconfig "paper-digest/internal/pkg/config"
)

// Oracle providers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Delivery channels.
const (
	DeliveryTelegram = "telegram"
	DeliveryDiscord  = "discord"
	DeliveryStdout   = "stdout"
	DeliveryNone     = "none"
)

// DigestConfig is everything one digest run needs.
type DigestConfig struct {
	// Oracle
	OracleProvider       string
	APIKey               string
	Model                string
	OracleBaseURL        string
	SelectionTemperature float64
	SummaryTemperature   float64
	MaxTokens            int
	OracleTimeout        time.Duration
	MaxConcurrency       int
	RequestsPerSecond    float64

	// Selection and summary
	MinGroups int
	MaxRounds int
	ChunkSize int

	// Feed
	Category   string
	MaxResults int

	// Delivery
	Delivery          string
	DeliveryToken     string
	RecipientID       string
	DiscordWebhookURL string
}

// FileConfig is the optional CONFIG_FILE. JSON files parse as YAML.
type FileConfig struct {
	APIKey    string `yaml:"api_key"`
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// LoadFileConfig reads a YAML or JSON file with the keys api_key, token and channel_id.
func LoadFileConfig(path string) (*FileConfig, error) {
	// #nosec G304 -- path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &fc, nil
}

// DefaultDigestConfig returns the defaults before any file or environment is applied.
func DefaultDigestConfig() DigestConfig {
	return DigestConfig{
		OracleProvider:       ProviderOpenAI,
		SelectionTemperature: 0,
		SummaryTemperature:   0.7,
		OracleTimeout:        120 * time.Second,
		MaxConcurrency:       4,
		MinGroups:            4,
		MaxRounds:            10,
		ChunkSize:            2500,
		Category:             "cs.*",
		MaxResults:           81,
		Delivery:             DeliveryTelegram,
	}
}

// LoadDigestConfig builds the configuration from CONFIG_FILE (if set) and
// the environment, then validates it. Unlike the worker loader it fails on
// any malformed value.
func LoadDigestConfig() (*DigestConfig, error) {
	cfg := DefaultDigestConfig()

	var file FileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return nil, err
		}
		file = *fc
	}

	var errs []error
	take := func(result envconfig.ConfigLoadResult) interface{} {
		for _, w := range result.Warnings {
			errs = append(errs, errors.New(w))
		}
		return result.Value
	}

	cfg.OracleProvider = take(envconfig.LoadEnvWithFallback("ORACLE_PROVIDER", cfg.OracleProvider,
		envconfig.ValidateOneOf(ProviderOpenAI, ProviderClaude))).(string)

	keyVar := "OPENAI_API_KEY"
	if cfg.OracleProvider == ProviderClaude {
		keyVar = "ANTHROPIC_API_KEY"
	}
	cfg.APIKey = envconfig.LoadEnvString(keyVar, file.APIKey)

	defaultModel := ""
	if cfg.OracleProvider == ProviderOpenAI {
		defaultModel = "gpt-4"
	}
	cfg.Model = envconfig.LoadEnvString("ORACLE_MODEL", defaultModel)
	cfg.OracleBaseURL = envconfig.LoadEnvString("ORACLE_BASE_URL", "")

	temperature := func(v float64) error { return envconfig.ValidateFloatRange(v, 0, 2) }
	cfg.SelectionTemperature = take(envconfig.LoadEnvFloat("SELECTION_TEMPERATURE", cfg.SelectionTemperature, temperature)).(float64)
	cfg.SummaryTemperature = take(envconfig.LoadEnvFloat("SUMMARY_TEMPERATURE", cfg.SummaryTemperature, temperature)).(float64)
	cfg.MaxTokens = take(envconfig.LoadEnvInt("ORACLE_MAX_TOKENS", cfg.MaxTokens, func(v int) error {
		return envconfig.ValidateIntRange(v, 0, 32768)
	})).(int)
	cfg.OracleTimeout = take(envconfig.LoadEnvDuration("ORACLE_TIMEOUT", cfg.OracleTimeout, envconfig.ValidatePositiveDuration)).(time.Duration)
	cfg.MaxConcurrency = take(envconfig.LoadEnvInt("ORACLE_MAX_CONCURRENCY", cfg.MaxConcurrency, func(v int) error {
		return envconfig.ValidateIntRange(v, 1, 64)
	})).(int)
	cfg.RequestsPerSecond = take(envconfig.LoadEnvFloat("ORACLE_RPS", cfg.RequestsPerSecond, func(v float64) error {
		return envconfig.ValidateFloatRange(v, 0, 1000)
	})).(float64)

	cfg.MinGroups = take(envconfig.LoadEnvInt("SELECTION_MIN_GROUPS", cfg.MinGroups, func(v int) error {
		return envconfig.ValidateIntRange(v, 1, 100)
	})).(int)
	cfg.MaxRounds = take(envconfig.LoadEnvInt("SELECTION_MAX_ROUNDS", cfg.MaxRounds, func(v int) error {
		return envconfig.ValidateIntRange(v, 1, 100)
	})).(int)
	cfg.ChunkSize = take(envconfig.LoadEnvInt("SUMMARY_CHUNK_SIZE", cfg.ChunkSize, func(v int) error {
		return envconfig.ValidateIntRange(v, 100, 100000)
	})).(int)

	cfg.Category = envconfig.LoadEnvString("ARXIV_CATEGORY", cfg.Category)
	cfg.MaxResults = take(envconfig.LoadEnvInt("ARXIV_MAX_RESULTS", cfg.MaxResults, func(v int) error {
		return envconfig.ValidateIntRange(v, 1, 2000)
	})).(int)

	cfg.Delivery = take(envconfig.LoadEnvWithFallback("DELIVERY_CHANNEL", cfg.Delivery,
		envconfig.ValidateOneOf(DeliveryTelegram, DeliveryDiscord, DeliveryStdout, DeliveryNone))).(string)
	cfg.DeliveryToken = envconfig.LoadEnvString("TELEGRAM_BOT_TOKEN", file.Token)
	cfg.RecipientID = envconfig.LoadEnvString("TELEGRAM_CHAT_ID", file.ChannelID)
	cfg.DiscordWebhookURL = envconfig.LoadEnvString("DISCORD_WEBHOOK_URL", "")

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid digest configuration: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *DigestConfig) Validate() error {
	var errs []error

	switch c.OracleProvider {
	case ProviderOpenAI, ProviderClaude:
	default:
		errs = append(errs, fmt.Errorf("oracle provider %q is not supported", c.OracleProvider))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("oracle API key is required (api_key, OPENAI_API_KEY or ANTHROPIC_API_KEY)"))
	}
	if c.OracleTimeout <= 0 {
		errs = append(errs, errors.New("oracle timeout must be positive"))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, errors.New("oracle max concurrency must be at least 1"))
	}
	if c.MinGroups < 1 {
		errs = append(errs, errors.New("selection min groups must be at least 1"))
	}
	if c.ChunkSize < 1 {
		errs = append(errs, errors.New("summary chunk size must be at least 1"))
	}
	if c.MaxResults < 1 {
		errs = append(errs, errors.New("arxiv max results must be at least 1"))
	}
	if c.Category == "" {
		errs = append(errs, errors.New("arxiv category is required"))
	}

	switch c.Delivery {
	case DeliveryTelegram:
		if c.DeliveryToken == "" {
			errs = append(errs, errors.New("telegram bot token is required (token or TELEGRAM_BOT_TOKEN)"))
		}
		if c.RecipientID == "" {
			errs = append(errs, errors.New("telegram chat id is required (channel_id or TELEGRAM_CHAT_ID)"))
		}
	case DeliveryDiscord:
		if c.DiscordWebhookURL == "" {
			errs = append(errs, errors.New("discord webhook url is required (DISCORD_WEBHOOK_URL)"))
		}
	case DeliveryStdout, DeliveryNone:
	default:
		errs = append(errs, fmt.Errorf("delivery channel %q is not supported", c.Delivery))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid digest configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LogValue hides secrets when the configuration is logged.
func (c DigestConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("oracle_provider", c.OracleProvider),
		slog.String("model", c.Model),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Float64("selection_temperature", c.SelectionTemperature),
		slog.Float64("summary_temperature", c.SummaryTemperature),
		slog.Duration("oracle_timeout", c.OracleTimeout),
		slog.Int("max_concurrency", c.MaxConcurrency),
		slog.Float64("requests_per_second", c.RequestsPerSecond),
		slog.Int("min_groups", c.MinGroups),
		slog.Int("chunk_size", c.ChunkSize),
		slog.String("category", c.Category),
		slog.Int("max_results", c.MaxResults),
		slog.String("delivery", c.Delivery),
		slog.Bool("delivery_token_set", c.DeliveryToken != ""),
		slog.String("recipient", c.RecipientID),
	)
}
