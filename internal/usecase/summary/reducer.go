package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"paper-digest/internal/observability/logging"
	"paper-digest/internal/observability/metrics"
	"paper-digest/internal/observability/tracing"
)

// SummaryPrompt precedes the text of every chunk sent to the oracle.
const SummaryPrompt = "Concisely and simply explain what this text is about: "

// ErrEmptyDocument is returned for a document without text.
var ErrEmptyDocument = errors.New("document has no text to summarize")

// Oracle answers a prompt with text.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Runner executes n tasks with bounded concurrency, returning the first error.
type Runner interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Reducer produces one summary per document.
type Reducer struct {
	oracle    Oracle
	runner    Runner
	chunkSize int
}

// NewReducer creates a Reducer. chunkSize below 1 uses DefaultChunkSize.
func NewReducer(oracle Oracle, runner Runner, chunkSize int) *Reducer {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Reducer{oracle: oracle, runner: runner, chunkSize: chunkSize}
}

// Summarize chunks text, then repeats merge-and-summarize rounds until a
// single chunk remains, and returns its text. A one-chunk document gets
// exactly one oracle call. Any chunk that fails fails the summary.
func (r *Reducer) Summarize(ctx context.Context, text string) (string, error) {
	logger := logging.FromContext(ctx)

	chunks := Chunk(text, r.chunkSize)
	if len(chunks) == 0 {
		return "", ErrEmptyDocument
	}

	total := len(chunks)
	ctx, span := tracing.StartSpan(ctx, "summary.summarize",
		attribute.Int("summary.chunks", total))

	logger.Info("summarizing document",
		slog.Int("chunks", total),
		slog.Int("planned_levels", EstimateLevels(total)))

	level := 0
	for {
		level++
		chunks = Merge(chunks)
		if err := r.summarizeLevel(ctx, chunks); err != nil {
			err = fmt.Errorf("summary level %d: %w", level, err)
			tracing.EndSpan(span, err)
			return "", err
		}
		logger.Debug("summary level completed",
			slog.Int("level", level),
			slog.Int("chunks", len(chunks)))

		if len(chunks) == 1 {
			break
		}
	}

	metrics.RecordSummary(total, level)
	span.SetAttributes(attribute.Int("summary.levels", level))
	tracing.EndSpan(span, nil)

	return chunks[0].Text, nil
}

// summarizeLevel replaces every chunk's text with its summary, in place.
func (r *Reducer) summarizeLevel(ctx context.Context, chunks []TextChunk) error {
	return r.runner.Run(ctx, len(chunks), func(ctx context.Context, i int) error {
		out, err := r.oracle.Complete(ctx, SummaryPrompt+chunks[i].Text)
		if err != nil {
			return fmt.Errorf("summarize chunk %d: %w", chunks[i].Position, err)
		}
		chunks[i].Text = out
		return nil
	})
}
