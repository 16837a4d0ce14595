package notifier

import (
	"context"

	"paper-digest/internal/domain/entity"
)

// NoOpNotifier discards every message.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Deliver does nothing and returns nil.
func (n *NoOpNotifier) Deliver(ctx context.Context, msg entity.Message) error {
	return nil
}
