// Package app assembles the digest pipeline from a DigestConfig.
package app

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"paper-digest/internal/config"
	"paper-digest/internal/infra/extractor"
	"paper-digest/internal/infra/notifier"
	"paper-digest/internal/infra/oracle"
	"paper-digest/internal/infra/scraper"
	"paper-digest/internal/usecase/digest"
	"paper-digest/internal/usecase/selection"
	"paper-digest/internal/usecase/summary"
	"paper-digest/pkg/pool"
)

// Options carries the process-level choices that are not part of DigestConfig.
type Options struct {
	// DryRun prints digests to Stdout instead of the configured channel.
	DryRun bool

	// Stdout receives stdout deliveries. Nil uses os.Stdout.
	Stdout io.Writer

	// Extractor overrides the document download settings. Nil uses
	// extractor.LoadConfigFromEnv.
	Extractor *extractor.Config

	// ArxivBaseURL overrides the feed endpoint.
	ArxivBaseURL string
}

// Build wires every pipeline stage. Both oracle clients share one worker
// pool and one rate limiter, so the configured limits hold across stages.
func Build(cfg *config.DigestConfig, opts Options) (*digest.Service, error) {
	runner, err := pool.New(cfg.MaxConcurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	limiter := oracle.NewLimiter(cfg.RequestsPerSecond)
	judge, err := NewOracleClient(cfg, cfg.SelectionTemperature, limiter)
	if err != nil {
		return nil, err
	}
	writer, err := NewOracleClient(cfg, cfg.SummaryTemperature, limiter)
	if err != nil {
		return nil, err
	}

	var extractCfg extractor.Config
	if opts.Extractor != nil {
		extractCfg = *opts.Extractor
	} else {
		extractCfg, err = extractor.LoadConfigFromEnv()
		if err != nil {
			return nil, fmt.Errorf("load document fetch config: %w", err)
		}
	}

	arxivCfg := scraper.DefaultArxivConfig()
	arxivCfg.Category = cfg.Category
	arxivCfg.MaxResults = cfg.MaxResults
	if opts.ArxivBaseURL != "" {
		arxivCfg.BaseURL = opts.ArxivBaseURL
	}

	delivery := cfg.Delivery
	if opts.DryRun {
		delivery = config.DeliveryStdout
	}
	deliverer, err := NewDeliverer(cfg, delivery, opts.Stdout)
	if err != nil {
		return nil, err
	}

	return digest.NewService(
		scraper.NewArxivFetcher(NewHTTPClient(), arxivCfg),
		selection.NewReducer(judge, runner, selection.Config{
			MinGroups: cfg.MinGroups,
			MaxRounds: cfg.MaxRounds,
		}),
		extractor.NewDocumentExtractor(extractCfg),
		summary.NewReducer(writer, runner, cfg.ChunkSize),
		deliverer,
		cfg.RecipientID,
	), nil
}

// NewOracleClient builds the configured backend at the given temperature and
// wraps it in a reliability client.
func NewOracleClient(cfg *config.DigestConfig, temperature float64, limiter *rate.Limiter) (*oracle.Client, error) {
	backendCfg := oracle.BackendConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: temperature,
		MaxTokens:   cfg.MaxTokens,
		BaseURL:     cfg.OracleBaseURL,
	}

	var backend oracle.Backend
	switch cfg.OracleProvider {
	case config.ProviderOpenAI:
		backend = oracle.NewOpenAIBackend(backendCfg)
	case config.ProviderClaude:
		backend = oracle.NewClaudeBackend(backendCfg)
	default:
		return nil, fmt.Errorf("unsupported oracle provider %q", cfg.OracleProvider)
	}

	clientCfg := oracle.DefaultConfig(backend.Name())
	clientCfg.Timeout = cfg.OracleTimeout
	clientCfg.Limiter = limiter
	return oracle.NewClient(backend, clientCfg), nil
}

// NewDeliverer returns the notifier for channel.
func NewDeliverer(cfg *config.DigestConfig, channel string, stdout io.Writer) (notifier.Deliverer, error) {
	switch channel {
	case config.DeliveryTelegram:
		return notifier.NewTelegramNotifier(notifier.TelegramConfig{
			Token:  cfg.DeliveryToken,
			ChatID: cfg.RecipientID,
		}), nil
	case config.DeliveryDiscord:
		return notifier.NewDiscordNotifier(notifier.DiscordConfig{
			WebhookURL: cfg.DiscordWebhookURL,
		}), nil
	case config.DeliveryStdout:
		if stdout == nil {
			stdout = os.Stdout
		}
		return notifier.NewStdoutNotifier(stdout), nil
	case config.DeliveryNone:
		return notifier.NewNoOpNotifier(), nil
	default:
		return nil, fmt.Errorf("unsupported delivery channel %q", channel)
	}
}

// NewHTTPClient returns the client used for the feed request.
// TLS 1.2+ is enforced.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
