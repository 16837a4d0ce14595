package extractor

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls document downloads.
type Config struct {
	// Timeout bounds one download attempt.
	Timeout time.Duration

	// MaxBodySize is enforced while reading, not from Content-Length.
	MaxBodySize int64

	// MaxRedirects caps the redirect chain; every hop is validated.
	MaxRedirects int

	// DenyPrivateIPs rejects URLs resolving to loopback, private or link-local addresses.
	DenyPrivateIPs bool

	UserAgent string
}

// DefaultConfig returns production defaults. PDFs are larger than articles,
// hence the 30s timeout and 25MB limit.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxBodySize:    25 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "PaperDigestBot/1.0",
	}
}

// Validate checks that the limits are usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)
	maxBodySize := int64(200 * 1024 * 1024)
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	return nil
}

// LoadConfigFromEnv overlays DOCUMENT_FETCH_* variables on DefaultConfig.
//
// Environment variables:
//   - DOCUMENT_FETCH_TIMEOUT: duration string, e.g. "30s"
//   - DOCUMENT_FETCH_MAX_BODY_SIZE: integer in bytes
//   - DOCUMENT_FETCH_MAX_REDIRECTS: integer
//   - DOCUMENT_FETCH_DENY_PRIVATE_IPS: "true" or "false"
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("DOCUMENT_FETCH_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid DOCUMENT_FETCH_TIMEOUT: %v (expected format: '30s', '1m')", err)
		}
		cfg.Timeout = parsed
	}

	if val := os.Getenv("DOCUMENT_FETCH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid DOCUMENT_FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("DOCUMENT_FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid DOCUMENT_FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("DOCUMENT_FETCH_DENY_PRIVATE_IPS"); val != "" {
		cfg.DenyPrivateIPs = val == "true"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
