// Package extractor downloads a paper's full document and returns its plain
// text. PDFs go through ledongthuc/pdf, HTML pages through go-readability.
package extractor

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"paper-digest/internal/observability/logging"
	"paper-digest/internal/observability/metrics"
	"paper-digest/internal/resilience/circuitbreaker"
	"paper-digest/internal/resilience/retry"
)

const (
	formatPDF     = "pdf"
	formatHTML    = "html"
	formatText    = "text"
	formatUnknown = "unknown"
)

var pdfMagic = []byte("%PDF")

// DocumentExtractor is safe for concurrent use.
type DocumentExtractor struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retry          retry.Config
	config         Config
}

// NewDocumentExtractor builds an extractor with its own HTTP client whose
// redirects are validated against config.
func NewDocumentExtractor(config Config) *DocumentExtractor {
	e := &DocumentExtractor{
		circuitBreaker: circuitbreaker.New(circuitbreaker.DocumentFetchConfig()),
		config:         config,
	}
	e.WithRetry(retry.DocumentFetchConfig())

	e.client = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= e.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), e.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return e
}

// WithRetry replaces the download retry policy. Per-attempt timeouts are
// always retried in addition to the transient errors retry.IsRetryable knows.
func (e *DocumentExtractor) WithRetry(cfg retry.Config) *DocumentExtractor {
	cfg.RetryIf = isRetryable
	e.retry = cfg
	return e
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || retry.IsRetryable(err)
}

type document struct {
	format string
	text   string
}

// Extract downloads urlStr and returns its text.
func (e *DocumentExtractor) Extract(ctx context.Context, urlStr string) (string, error) {
	if err := validateURL(urlStr, e.config.DenyPrivateIPs); err != nil {
		return "", err
	}

	start := time.Now()
	var doc document
	err := retry.WithBackoff(ctx, e.retry, func() error {
		result, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doFetch(ctx, urlStr)
		})
		if err != nil {
			return err
		}
		doc = result.(document)
		return nil
	})
	if doc.format == "" {
		doc.format = formatUnknown
	}
	metrics.RecordDocumentExtraction(doc.format, err == nil, time.Since(start))

	if err != nil {
		return "", err
	}

	logging.FromContext(ctx).Debug("document extracted",
		slog.String("url", urlStr),
		slog.String("format", doc.format),
		slog.Int("length", len(doc.text)))

	return doc.text, nil
}

// doFetch performs one download and extraction.
func (e *DocumentExtractor) doFetch(ctx context.Context, urlStr string) (document, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return document{}, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", e.config.UserAgent)
	req.Header.Set("Accept", "application/pdf, text/html;q=0.9, text/plain;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return document{}, fmt.Errorf("%w: request exceeded %v", ErrTimeout, e.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && (errors.Is(urlErr.Err, ErrTooManyRedirects) || errors.Is(urlErr.Err, ErrPrivateIP) || errors.Is(urlErr.Err, ErrInvalidURL)) {
			return document{}, urlErr.Err
		}
		return document{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return document{}, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBodySize+1))
	if err != nil {
		return document{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > e.config.MaxBodySize {
		return document{}, fmt.Errorf("%w: response exceeds limit %d bytes", ErrBodyTooLarge, e.config.MaxBodySize)
	}

	format := detectFormat(resp.Header.Get("Content-Type"), body)
	finalURL := resp.Request.URL

	var text string
	switch format {
	case formatPDF:
		text, err = pdfText(body)
	case formatHTML:
		text, err = htmlText(body, finalURL)
	case formatText:
		text = string(body)
	default:
		return document{format: format}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, resp.Header.Get("Content-Type"))
	}
	if err != nil {
		return document{format: format}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return document{format: format}, fmt.Errorf("%w: no text in %s document", ErrExtractionFailed, format)
	}
	return document{format: format, text: text}, nil
}

// detectFormat trusts the PDF magic number over the declared content type.
func detectFormat(contentType string, body []byte) string {
	if bytes.HasPrefix(body, pdfMagic) {
		return formatPDF
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = http.DetectContentType(body)
		mediaType, _, _ = strings.Cut(mediaType, ";")
	}
	switch mediaType {
	case "application/pdf":
		return formatPDF
	case "text/html", "application/xhtml+xml":
		return formatHTML
	case "text/plain":
		return formatText
	}
	return formatUnknown
}

func pdfText(body []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
	}
	return buf.String(), nil
}

func htmlText(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: readability: %v", ErrExtractionFailed, err)
	}
	if article.TextContent == "" {
		return "", fmt.Errorf("%w: no readable content found", ErrExtractionFailed)
	}
	return article.TextContent, nil
}
