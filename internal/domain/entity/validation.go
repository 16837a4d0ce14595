package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// ValidateURL checks that rawURL is a well-formed absolute http(s) URL.
// Network-level checks (private address blocking) live with the HTTP clients.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// Validate checks the fields every downstream stage relies on.
func (c Candidate) Validate() error {
	if c.ID < 1 {
		return &ValidationError{Field: "id", Message: "id must be positive"}
	}
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if err := ValidateURL(c.DocumentURL); err != nil {
		return fmt.Errorf("document url: %w", err)
	}
	return nil
}
