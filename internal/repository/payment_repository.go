package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// PaymentRepository provides data access for payments. Exactly one payment
// row exists per order, enforced by a unique index on order_id.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository with the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Insert persists a new payment inside tx and sets p.ID.
func (r *PaymentRepository) Insert(ctx context.Context, tx database.TxQuerier, p *model.Payment) error {
	row := tx.QueryRow(ctx,
		`INSERT INTO payment (order_id, user_id, total_amount, used_point, paid_amount, status,
		                       card_type, card_no, pg_requested_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now(), now()) RETURNING id, pg_requested_at`,
		p.OrderID, p.UserID, p.TotalAmount, p.UsedPoint, p.PaidAmount, p.Status,
		nullableString(p.CardType), nullableString(p.CardNo))
	return row.Scan(&p.ID, &p.PGRequestedAt)
}

// GetByID retrieves a payment, read-only.
func (r *PaymentRepository) GetByID(ctx context.Context, tx database.TxQuerier, id int64) (*model.Payment, error) {
	row := tx.QueryRow(ctx, selectPaymentSQL+` WHERE id = $1`, id)
	return scanPayment(row)
}

// GetByOrderID retrieves the single payment owned by orderID.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, tx database.TxQuerier, orderID int64) (*model.Payment, error) {
	row := tx.QueryRow(ctx, selectPaymentSQL+` WHERE order_id = $1`, orderID)
	return scanPayment(row)
}

// LockExclusiveByID acquires a row lock on the payment, used by the state
// machine to serialize concurrent terminal-transition attempts (e.g. a
// callback racing the reconciliation loop) on the same row.
func (r *PaymentRepository) LockExclusiveByID(ctx context.Context, tx database.TxQuerier, id int64) (*model.Payment, error) {
	row := tx.QueryRow(ctx, selectPaymentSQL+` WHERE id = $1 FOR UPDATE`, id)
	return scanPayment(row)
}

// UpdateStatus stamps a terminal transition. pgCompletedAt is set for both
// SUCCESS and FAILED; failureReason only applies to FAILED.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, tx database.TxQuerier, id int64, status model.PaymentStatus, failureReason string) error {
	_, err := tx.Exec(ctx,
		`UPDATE payment SET status = $1, failure_reason = $2, pg_completed_at = now(), updated_at = now() WHERE id = $3`,
		status, nullableString(failureReason), id)
	if err != nil {
		return fmt.Errorf("update payment %d status: %w", id, err)
	}
	return nil
}

// ListStalePending returns up to limit payments in PENDING status whose
// pg_requested_at is older than the given threshold, for the reconciliation
// loop to re-check against the PG ledger.
func (r *PaymentRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		selectPaymentSQL+` WHERE status = $1 AND pg_requested_at < $2 ORDER BY pg_requested_at ASC LIMIT $3`,
		model.PaymentPending, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending payments: %w", err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const selectPaymentSQL = `SELECT id, order_id, user_id, total_amount, used_point, paid_amount, status,
	COALESCE(card_type, ''), COALESCE(card_no, ''), COALESCE(failure_reason, ''),
	pg_requested_at, pg_completed_at, created_at, updated_at FROM payment`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.TotalAmount, &p.UsedPoint, &p.PaidAmount, &p.Status,
		&p.CardType, &p.CardNo, &p.FailureReason, &p.PGRequestedAt, &p.PGCompletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("payment not found")
		}
		return nil, err
	}
	return &p, nil
}
