package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"paper-digest/internal/domain/entity"
	"paper-digest/internal/observability/logging"
	"paper-digest/internal/observability/metrics"
	"paper-digest/internal/observability/tracing"
)

// DefaultMaxRounds caps the number of rounds of one reduction.
const DefaultMaxRounds = 10

// RankingPrompt is appended to a group's text.
const RankingPrompt = "Give me the top 3, in your opinion, most interesting papers. " +
	"Rank your choices. Do not change the given indexes. " +
	`Answer only with a JSON object of the form {"ranking": [first, second, third]} ` +
	"where each entry is the index of a paper listed above."

// Oracle answers a prompt with text.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Runner executes n tasks with bounded concurrency, returning the first error.
type Runner interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Config controls the reduction.
type Config struct {
	// MinGroups is the minimum number of groups per round. Zero uses DefaultMinGroups.
	MinGroups int

	// MaxRounds stops a reduction that keeps going. Zero uses DefaultMaxRounds.
	MaxRounds int
}

// Round records one pass of the reduction.
type Round struct {
	Number int
	Input  []entity.Candidate
	Groups []Group
	Chosen map[int]struct{}
}

// Result is the outcome of a reduction.
type Result struct {
	// Selected holds at most TopK candidates in original order.
	Selected []entity.Candidate

	// Rounds lists every completed round.
	Rounds []Round

	// Insufficient is set when fewer than TopK candidates could be selected.
	Insufficient bool
}

// Reducer narrows a candidate list to TopK using the oracle as judge.
type Reducer struct {
	oracle Oracle
	runner Runner
	cfg    Config
}

// NewReducer creates a Reducer. runner is shared with other stages so the
// oracle concurrency limit holds across the whole run.
func NewReducer(oracle Oracle, runner Runner, cfg Config) *Reducer {
	if cfg.MinGroups < 1 {
		cfg.MinGroups = DefaultMinGroups
	}
	if cfg.MaxRounds < 1 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	return &Reducer{oracle: oracle, runner: runner, cfg: cfg}
}

// Reduce runs ranking rounds until at most TopK candidates remain.
// Candidate IDs must be unique. Input of TopK or fewer is returned unchanged.
// Each round partitions with the configured MinGroups. A round that does not
// shrink the list is followed by one ranked with a single group per twenty
// candidates; if that stalls too, the leading TopK are kept.
// An oracle call that fails after its retries fails the reduction.
func (r *Reducer) Reduce(ctx context.Context, candidates []entity.Candidate) (Result, error) {
	logger := logging.FromContext(ctx)
	res := Result{}

	if len(candidates) <= TopK {
		res.Selected = append([]entity.Candidate(nil), candidates...)
		res.Insufficient = len(candidates) < TopK
		if res.Insufficient {
			logger.Warn("too few candidates to select from",
				slog.Int("candidates", len(candidates)),
				slog.Any("error", ErrInsufficientCandidates))
			metrics.RecordSelectionFallback("insufficient")
		}
		return res, nil
	}

	current := candidates
	var previous []entity.Candidate
	consolidate := false

	for number := 1; len(current) > TopK; number++ {
		if number > r.cfg.MaxRounds {
			logger.Warn("selection round limit reached, keeping leading candidates",
				slog.Int("max_rounds", r.cfg.MaxRounds),
				slog.Int("remaining", len(current)))
			metrics.RecordSelectionFallback("truncate")
			current = current[:TopK]
			break
		}

		minGroups := r.cfg.MinGroups
		if consolidate {
			minGroups = 1
		}

		round, err := r.runRound(ctx, number, current, minGroups)
		if err != nil {
			return res, fmt.Errorf("selection round %d: %w", number, err)
		}
		res.Rounds = append(res.Rounds, round)

		next := filterChosen(candidates, round.Chosen)
		logger.Info("selection round completed",
			slog.Int("round", number),
			slog.Int("input", len(current)),
			slog.Int("groups", len(round.Groups)),
			slog.Int("chosen", len(next)))

		if len(next) >= len(current) {
			if !consolidate {
				logger.Warn("selection round made no progress, ranking in fewer groups",
					slog.Int("round", number),
					slog.Int("remaining", len(current)))
				metrics.RecordSelectionFallback("consolidate")
				consolidate = true
				continue
			}
			logger.Warn("selection round made no progress, keeping leading candidates",
				slog.Int("round", number),
				slog.Int("remaining", len(current)))
			metrics.RecordSelectionFallback("truncate")
			current = current[:TopK]
			break
		}

		consolidate = false
		previous, current = current, next
	}

	res.Selected = current
	if len(res.Selected) < TopK {
		res.Selected, res.Insufficient = backfill(res.Selected, previous)
		if res.Insufficient {
			logger.Warn("fewer candidates than required after selection",
				slog.Int("selected", len(res.Selected)),
				slog.Any("error", ErrInsufficientCandidates))
			metrics.RecordSelectionFallback("insufficient")
		} else {
			logger.Info("selection backfilled from previous round",
				slog.Int("previous", len(previous)))
			metrics.RecordSelectionFallback("backfill")
		}
	}

	return res, nil
}

// runRound partitions current into at least minGroups groups, ranks every
// group concurrently and unions the identifiers chosen.
func (r *Reducer) runRound(ctx context.Context, number int, current []entity.Candidate, minGroups int) (Round, error) {
	ctx, span := tracing.StartSpan(ctx, "selection.round",
		attribute.Int("selection.round", number),
		attribute.Int("selection.candidates", len(current)))

	groups := Partition(current, minGroups)
	maxIdentifier := maxID(current)
	metrics.RecordSelectionRound(len(groups))

	var mu sync.Mutex
	chosen := make(map[int]struct{})

	err := r.runner.Run(ctx, len(groups), func(ctx context.Context, i int) error {
		group := groups[i]
		response, err := r.oracle.Complete(ctx, group.Text()+RankingPrompt)
		if err != nil {
			return fmt.Errorf("rank group %d: %w", i+1, err)
		}

		ids, err := ParseIdentifiers(response, group.IDs(), maxIdentifier)
		if err != nil {
			reason := "empty"
			var pe *ParseError
			if errors.As(err, &pe) {
				reason = "invalid_identifier"
			}
			metrics.RecordParseAmbiguity(reason)
			logging.FromContext(ctx).Warn("ranking response ignored",
				slog.Int("round", number),
				slog.Int("group", i+1),
				slog.String("reason", reason),
				slog.Any("error", err))
			return nil
		}

		mu.Lock()
		for _, id := range ids {
			chosen[id] = struct{}{}
		}
		mu.Unlock()
		return nil
	})

	tracing.EndSpan(span, err)
	if err != nil {
		return Round{}, err
	}

	return Round{Number: number, Input: current, Groups: groups, Chosen: chosen}, nil
}

// filterChosen keeps the candidates whose ID is in chosen, in original order.
func filterChosen(candidates []entity.Candidate, chosen map[int]struct{}) []entity.Candidate {
	out := make([]entity.Candidate, 0, len(chosen))
	for _, c := range candidates {
		if _, ok := chosen[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// backfill tops selected up to TopK from previous, which is used only when it
// held more than TopK candidates. insufficient reports a short result.
func backfill(selected, previous []entity.Candidate) ([]entity.Candidate, bool) {
	if len(previous) <= TopK {
		return selected, len(selected) < TopK
	}

	have := make(map[int]struct{}, len(selected))
	for _, c := range selected {
		have[c.ID] = struct{}{}
	}

	out := append([]entity.Candidate(nil), selected...)
	for _, c := range previous {
		if len(out) == TopK {
			break
		}
		if _, ok := have[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}
	return out, len(out) < TopK
}

func maxID(candidates []entity.Candidate) int {
	m := 0
	for _, c := range candidates {
		m = max(m, c.ID)
	}
	return m
}
