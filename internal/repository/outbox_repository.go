package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// OutboxRepository provides data access for the transactional outbox.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new OutboxRepository with the given pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Append writes an event row inside tx. Version is computed as
// max(existing)+1 for (aggregateType, aggregateId) in the same statement,
// so it is impossible for two writers inside the same transaction-protected
// write to race on version (the aggregate row itself is already exclusively
// locked by the caller by the time this runs).
func (r *OutboxRepository) Append(ctx context.Context, tx database.TxQuerier, e *model.OutboxEvent) error {
	row := tx.QueryRow(ctx,
		`INSERT INTO outbox_event (aggregate_type, aggregate_id, event_type, payload, partition_key, version, created_at)
		 SELECT $1, $2, $3, $4, $5, COALESCE(MAX(version), 0) + 1, now()
		 FROM outbox_event WHERE aggregate_type = $1 AND aggregate_id = $2
		 RETURNING id, version, created_at`,
		e.AggregateType, e.AggregateID, e.EventType, e.Payload, e.PartitionKey)
	return row.Scan(&e.ID, &e.Version, &e.CreatedAt)
}

// ListUnpublished selects up to limit unpublished rows, oldest first, using
// FOR UPDATE SKIP LOCKED so multiple dispatcher instances can run without
// contending on the same rows.
func (r *OutboxRepository) ListUnpublished(ctx context.Context, tx database.TxQuerier, limit int) ([]*model.OutboxEvent, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, partition_key, version, created_at, published_at
		 FROM outbox_event WHERE published_at IS NULL
		 ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished outbox events: %w", err)
	}
	defer rows.Close()

	var out []*model.OutboxEvent
	for rows.Next() {
		e, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkPublished stamps published_at for id inside tx.
func (r *OutboxRepository) MarkPublished(ctx context.Context, tx database.TxQuerier, id int64) error {
	_, err := tx.Exec(ctx, `UPDATE outbox_event SET published_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event %d published: %w", id, err)
	}
	return nil
}

func scanOutboxEvent(row pgx.Row) (*model.OutboxEvent, error) {
	var e model.OutboxEvent
	err := row.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.PartitionKey, &e.Version, &e.CreatedAt, &e.PublishedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
