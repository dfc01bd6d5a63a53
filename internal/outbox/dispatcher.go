package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// ListMarkStore is the data-access surface the dispatcher needs.
type ListMarkStore interface {
	ListUnpublished(ctx context.Context, tx database.TxQuerier, limit int) ([]*model.OutboxEvent, error)
	MarkPublished(ctx context.Context, tx database.TxQuerier, id int64) error
}

// Dispatcher is a ticker-driven poller providing at-least-once delivery: it
// reads a batch of unpublished rows with FOR UPDATE SKIP LOCKED so multiple
// dispatcher instances never double-process the same row concurrently, hands
// each to the Publisher, and marks it published only once the publisher
// returns without error. A handler error leaves the row unpublished for the
// next tick to retry - the dispatcher itself never drops an event.
type Dispatcher struct {
	store     ListMarkStore
	beginner  database.TxBeginner
	publisher *Publisher
	interval  time.Duration
	batchSize int
}

// NewDispatcher builds a Dispatcher polling every interval for up to
// batchSize events per tick.
func NewDispatcher(store ListMarkStore, beginner database.TxBeginner, publisher *Publisher, interval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		store:     store,
		beginner:  beginner,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run blocks polling on a ticker until ctx is canceled. Intended to be
// launched via an errgroup.Group alongside the reconciliation loop, so
// cmd/api can wait for both to exit cleanly during shutdown.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.tick(ctx); err != nil {
				log.Error().Err(err).Msg("outbox dispatcher tick failed")
			}
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) error {
	return database.WithTx(ctx, d.beginner, func(tx pgx.Tx) error {
		events, err := d.store.ListUnpublished(ctx, tx, d.batchSize)
		if err != nil {
			return err
		}
		for _, e := range events {
			if err := d.publisher.Dispatch(ctx, e); err != nil {
				log.Warn().Err(err).Int64("event_id", e.ID).Msg("outbox handler failed, leaving unpublished for retry")
				continue
			}
			if err := d.store.MarkPublished(ctx, tx, e.ID); err != nil {
				return err
			}
		}
		return nil
	})
}
