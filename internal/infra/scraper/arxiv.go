// Package scraper fetches the daily batch of candidate papers from the arXiv
// Atom API and turns feed entries into candidates.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"paper-digest/internal/domain/entity"
	"paper-digest/internal/observability/logging"
	"paper-digest/internal/resilience/circuitbreaker"
	"paper-digest/internal/resilience/retry"
)

const (
	// DefaultBaseURL is the arXiv query endpoint.
	DefaultBaseURL = "https://export.arxiv.org/api/query"

	// DefaultCategory matches every Computer Science category.
	DefaultCategory = "cs.*"

	// DefaultMaxResults is the number of entries requested per day.
	DefaultMaxResults = 81

	maxFeedBytes = 20 << 20
	pdfType      = "application/pdf"
)

// ErrMalformedFeed indicates the response body is not a parsable Atom feed.
var ErrMalformedFeed = errors.New("malformed feed")

// ArxivConfig controls the daily query.
type ArxivConfig struct {
	BaseURL    string
	Category   string
	MaxResults int
	UserAgent  string

	// Retry is the backoff policy for transient failures.
	Retry retry.Config

	// Now returns the current time; the query covers the UTC day before it.
	Now func() time.Time
}

// DefaultArxivConfig returns the production query settings.
func DefaultArxivConfig() ArxivConfig {
	return ArxivConfig{
		BaseURL:    DefaultBaseURL,
		Category:   DefaultCategory,
		MaxResults: DefaultMaxResults,
		UserAgent:  "PaperDigestBot/1.0",
		Retry:      retry.FeedFetchConfig(),
		Now:        time.Now,
	}
}

// ArxivFetcher retrieves yesterday's submissions with retry and a circuit breaker.
type ArxivFetcher struct {
	client         *http.Client
	cfg            ArxivConfig
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewArxivFetcher creates a fetcher. Zero fields of cfg take their defaults.
func NewArxivFetcher(client *http.Client, cfg ArxivConfig) *ArxivFetcher {
	def := DefaultArxivConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Category == "" {
		cfg.Category = def.Category
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = def.Retry
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}

	return &ArxivFetcher{
		client:         client,
		cfg:            cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
	}
}

// QueryURL builds the request URL for submissions made on day (UTC).
func (f *ArxivFetcher) QueryURL(day time.Time) string {
	d := day.UTC().Format("20060102")
	q := url.Values{}
	q.Set("search_query", fmt.Sprintf("cat:%s AND submittedDate:[%s0000 TO %s2359]", f.cfg.Category, d, d))
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(f.cfg.MaxResults))
	return f.cfg.BaseURL + "?" + q.Encode()
}

// FetchPapers returns yesterday's papers that link a PDF, with IDs 1..N in
// feed order.
func (f *ArxivFetcher) FetchPapers(ctx context.Context) ([]entity.Candidate, error) {
	logger := logging.FromContext(ctx)
	queryURL := f.QueryURL(f.cfg.Now().AddDate(0, 0, -1))

	var feed *atom.Feed
	err := retry.WithBackoff(ctx, f.cfg.Retry, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, queryURL)
		})
		if err != nil {
			if circuitbreaker.IsRejection(err) {
				logger.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		feed = result.(*atom.Feed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch arxiv feed: %w", err)
	}

	cands := toCandidates(feed)
	logger.Info("arxiv feed fetched",
		slog.Int("entries", len(feed.Entries)),
		slog.Int("candidates", len(cands)),
		slog.Int("skipped_without_pdf", len(feed.Entries)-len(cands)))

	return cands, nil
}

// doFetch performs one request without retry or circuit breaker.
func (f *ArxivFetcher) doFetch(ctx context.Context, queryURL string) (*atom.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	feed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	return feed, nil
}

// toCandidates keeps entries with a PDF link and numbers them densely.
func toCandidates(feed *atom.Feed) []entity.Candidate {
	cands := make([]entity.Candidate, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		pdf := findLink(e.Links, func(l *atom.Link) bool { return l.Type == pdfType })
		if pdf == "" {
			continue
		}

		link := findLink(e.Links, func(l *atom.Link) bool { return l.Rel == "alternate" || l.Rel == "" })
		if link == "" {
			link = e.ID
		}

		authors := make([]entity.Author, 0, len(e.Authors))
		for _, a := range e.Authors {
			if a != nil && a.Name != "" {
				authors = append(authors, entity.Author{Name: collapseSpace(a.Name)})
			}
		}

		var published time.Time
		if e.PublishedParsed != nil {
			published = *e.PublishedParsed
		}

		cands = append(cands, entity.Candidate{
			ID:          len(cands) + 1,
			Link:        link,
			Authors:     authors,
			Title:       collapseSpace(e.Title),
			Abstract:    collapseSpace(e.Summary),
			DocumentURL: pdf,
			PublishedAt: published,
		})
	}
	return cands
}

func findLink(links []*atom.Link, match func(*atom.Link) bool) string {
	for _, l := range links {
		if l != nil && l.Href != "" && match(l) {
			return l.Href
		}
	}
	return ""
}

// collapseSpace joins the words of s with single spaces; arXiv wraps titles
// and abstracts across lines.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
