package extractor_test

import (
	"testing"
	"time"

	"paper-digest/internal/infra/extractor"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := extractor.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if !cfg.DenyPrivateIPs {
		t.Error("expected DenyPrivateIPs to default to true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*extractor.Config)
	}{
		{"zero timeout", func(c *extractor.Config) { c.Timeout = 0 }},
		{"tiny body limit", func(c *extractor.Config) { c.MaxBodySize = 10 }},
		{"huge body limit", func(c *extractor.Config) { c.MaxBodySize = 1 << 40 }},
		{"negative redirects", func(c *extractor.Config) { c.MaxRedirects = -1 }},
		{"too many redirects", func(c *extractor.Config) { c.MaxRedirects = 11 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := extractor.DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DOCUMENT_FETCH_TIMEOUT", "45s")
	t.Setenv("DOCUMENT_FETCH_MAX_BODY_SIZE", "2048")
	t.Setenv("DOCUMENT_FETCH_MAX_REDIRECTS", "3")
	t.Setenv("DOCUMENT_FETCH_DENY_PRIVATE_IPS", "false")

	cfg, err := extractor.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Timeout)
	}
	if cfg.MaxBodySize != 2048 {
		t.Errorf("MaxBodySize = %d, want 2048", cfg.MaxBodySize)
	}
	if cfg.MaxRedirects != 3 {
		t.Errorf("MaxRedirects = %d, want 3", cfg.MaxRedirects)
	}
	if cfg.DenyPrivateIPs {
		t.Error("expected DenyPrivateIPs false")
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"DOCUMENT_FETCH_TIMEOUT":       "soon",
		"DOCUMENT_FETCH_MAX_BODY_SIZE": "big",
		"DOCUMENT_FETCH_MAX_REDIRECTS": "-4",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := extractor.LoadConfigFromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", key, val)
			}
		})
	}
}
