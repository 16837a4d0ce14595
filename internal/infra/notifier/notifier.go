// Package notifier delivers digest messages to chat channels.
// Telegram is the primary channel; Discord webhooks, stdout (dry runs) and a
// no-op implementation share the same Deliverer interface.
package notifier

import (
	"context"

	"paper-digest/internal/domain/entity"
)

// Deliverer sends one message to its channel.
// Implementations handle rate limiting, retries and logging internally and
// return a non-nil error only once the message is known not to have arrived.
type Deliverer interface {
	Deliver(ctx context.Context, msg entity.Message) error
}
