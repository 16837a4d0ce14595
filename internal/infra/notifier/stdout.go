package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"paper-digest/internal/domain/entity"
)

const stdoutSeparator = "----------------------------------------"

// StdoutNotifier writes messages to a writer, by default os.Stdout.
// It backs the -dry-run mode.
type StdoutNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdoutNotifier returns a notifier writing to w, or os.Stdout when w is nil.
func NewStdoutNotifier(w io.Writer) *StdoutNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutNotifier{w: w}
}

// Deliver prints msg followed by a separator line.
func (s *StdoutNotifier) Deliver(ctx context.Context, msg entity.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "%s\n%s\n", msg.Text, stdoutSeparator); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
