// Package digest runs the daily pipeline: fetch candidates, select the top
// papers, summarize each one and deliver it as soon as it is ready.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"paper-digest/internal/domain/entity"
	"paper-digest/internal/observability/logging"
	"paper-digest/internal/observability/metrics"
	"paper-digest/internal/observability/tracing"
	"paper-digest/internal/usecase/selection"
	"paper-digest/internal/usecase/summary"
)

// PaperFetcher returns the day's candidates with unique IDs.
type PaperFetcher interface {
	FetchPapers(ctx context.Context) ([]entity.Candidate, error)
}

// Selector narrows candidates to the top papers.
type Selector interface {
	Reduce(ctx context.Context, candidates []entity.Candidate) (selection.Result, error)
}

// TextExtractor returns the full text behind a document URL.
type TextExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Summarizer condenses a document into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Deliverer sends one message.
type Deliverer interface {
	Deliver(ctx context.Context, msg entity.Message) error
}

// Service wires the pipeline stages together.
type Service struct {
	Fetcher    PaperFetcher
	Selector   Selector
	Extractor  TextExtractor
	Summarizer Summarizer
	Deliverer  Deliverer

	// Recipient is the channel-specific destination of every message.
	Recipient string
}

// NewService creates a Service.
func NewService(
	fetcher PaperFetcher,
	selector Selector,
	extractor TextExtractor,
	summarizer Summarizer,
	deliverer Deliverer,
	recipient string,
) *Service {
	return &Service{
		Fetcher:    fetcher,
		Selector:   selector,
		Extractor:  extractor,
		Summarizer: summarizer,
		Deliverer:  deliverer,
		Recipient:  recipient,
	}
}

// RunStats summarizes one run.
type RunStats struct {
	RunID          string
	Candidates     int
	Selected       int
	Summarized     int
	Delivered      int
	ExtractErrors  int
	DeliveryErrors int
	Insufficient   bool
	Duration       time.Duration
}

// Run executes one digest. A feed, selection or summarization failure aborts
// the run; items delivered before the failure stay delivered. A paper whose
// document cannot be extracted is skipped. Delivery failures do not stop
// later deliveries and are reported together as ErrDeliveryFailed.
func (s *Service) Run(ctx context.Context) (stats *RunStats, err error) {
	start := time.Now()
	runID := logging.NewRunID()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	ctx, span := tracing.StartSpan(ctx, "digest.run", attribute.String("run.id", runID))
	stats = &RunStats{RunID: runID}
	defer func() {
		stats.Duration = time.Since(start)
		metrics.RecordRun(err == nil, stats.Duration)
		span.SetAttributes(
			attribute.Int("digest.candidates", stats.Candidates),
			attribute.Int("digest.delivered", stats.Delivered))
		tracing.EndSpan(span, err)
	}()

	logger.Info("digest run started")

	candidates, err := s.Fetcher.FetchPapers(ctx)
	if err != nil {
		logger.Error("paper feed fetch failed", slog.Any("error", err))
		return stats, fmt.Errorf("%w: %w", ErrFeedFetchFailed, err)
	}
	stats.Candidates = len(candidates)
	metrics.RecordCandidatesFetched(len(candidates))
	logger.Info("candidates fetched", slog.Int("count", len(candidates)))

	logger.Info("selecting the top papers", slog.Int("top_k", selection.TopK))
	result, err := s.Selector.Reduce(ctx, candidates)
	if err != nil {
		logger.Error("selection failed", slog.Any("error", err))
		return stats, fmt.Errorf("%w: %w", ErrSelectionFailed, err)
	}
	stats.Selected = len(result.Selected)
	stats.Insufficient = result.Insufficient
	if result.Insufficient {
		logger.Warn("fewer candidates than requested",
			slog.Int("selected", len(result.Selected)),
			slog.Int("top_k", selection.TopK))
	}

	var deliveryErrs []error
	for i, cand := range result.Selected {
		itemLogger := logger.With(
			slog.Int("paper_id", cand.ID),
			slog.Int("position", i+1))

		d, err := s.digestOne(ctx, itemLogger, cand)
		if errors.Is(err, ErrDocumentFetchFailed) {
			stats.ExtractErrors++
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Summarized++

		msg := entity.Message{Recipient: s.Recipient, Text: d.Format(), DisablePreview: true}
		if err := s.Deliverer.Deliver(ctx, msg); err != nil {
			stats.DeliveryErrors++
			deliveryErrs = append(deliveryErrs, fmt.Errorf("paper %d: %w", cand.ID, err))
			itemLogger.Error("delivery failed", slog.Any("error", err))
			continue
		}
		stats.Delivered++
	}

	logger.Info("digest run completed",
		slog.Int("candidates", stats.Candidates),
		slog.Int("selected", stats.Selected),
		slog.Int("summarized", stats.Summarized),
		slog.Int("delivered", stats.Delivered),
		slog.Int("extract_errors", stats.ExtractErrors),
		slog.Int("delivery_errors", stats.DeliveryErrors),
		slog.Duration("duration", time.Since(start)))

	if len(deliveryErrs) > 0 {
		return stats, fmt.Errorf("%w: %d of %d messages: %w",
			ErrDeliveryFailed, len(deliveryErrs), stats.Summarized, errors.Join(deliveryErrs...))
	}
	return stats, nil
}

// digestOne extracts and summarizes one paper.
func (s *Service) digestOne(ctx context.Context, logger *slog.Logger, cand entity.Candidate) (entity.Digest, error) {
	ctx, span := tracing.StartSpan(ctx, "digest.paper", attribute.Int("paper.id", cand.ID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	logger.Info("now summarizing", slog.String("title", cand.Title))

	text, err := s.Extractor.Extract(ctx, cand.DocumentURL)
	if err == nil && text == "" {
		err = summary.ErrEmptyDocument
	}
	if err != nil {
		logger.Warn("document extraction failed, skipping paper",
			slog.String("url", cand.DocumentURL),
			slog.Any("error", err))
		err = fmt.Errorf("%w: %w", ErrDocumentFetchFailed, err)
		return entity.Digest{}, err
	}

	sum, err := s.Summarizer.Summarize(ctx, text)
	if err != nil {
		logger.Error("summarization failed", slog.Any("error", err))
		err = fmt.Errorf("%w: paper %d: %w", ErrSummarizationFailed, cand.ID, err)
		return entity.Digest{}, err
	}

	return entity.Digest{Candidate: cand, Summary: sum}, nil
}
