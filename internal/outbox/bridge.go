package outbox

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// AppendStore is the data-access surface the bridge needs.
type AppendStore interface {
	Append(ctx context.Context, tx database.TxQuerier, e *model.OutboxEvent) error
}

// Bridge is the listener that persists an in-process domain event as an
// outbox row inside the same transaction that produced it. A bridge failure
// must never block the enclosing business transaction: it is logged and
// swallowed here rather than returned, so a transient outbox write problem
// never unwinds a state change that has already happened in the same
// transaction.
type Bridge struct {
	store AppendStore
}

// NewBridge builds a Bridge over the given store.
func NewBridge(store AppendStore) *Bridge {
	return &Bridge{store: store}
}

// Publish persists event inside tx, swallowing and logging any failure.
func (b *Bridge) Publish(ctx context.Context, tx database.TxQuerier, event *model.OutboxEvent) {
	if err := b.store.Append(ctx, tx, event); err != nil {
		log.Error().
			Err(err).
			Str("aggregate_type", event.AggregateType).
			Int64("aggregate_id", event.AggregateID).
			Str("event_type", event.EventType).
			Msg("outbox bridge failed to persist event; business transaction continues unaffected")
	}
}
