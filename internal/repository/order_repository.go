package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// OrderRepository provides data access for orders, storing items as inline
// JSON in the items column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Insert persists a new order with the status it carries (the orchestrator
// always inserts PENDING) inside tx and sets order.ID.
func (r *OrderRepository) Insert(ctx context.Context, tx database.TxQuerier, o *model.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	row := tx.QueryRow(ctx,
		`INSERT INTO "order" (user_id, status, total_amount, items, coupon_code, discount_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now()) RETURNING id`,
		o.UserID, o.Status, o.TotalAmount, itemsJSON, nullableString(o.CouponCode), o.DiscountAmount)
	return row.Scan(&o.ID)
}

// UpdateStatus moves an order to a new status inside tx. The orchestrator is
// responsible for only calling this from a PENDING source state; this layer
// does not re-derive the state machine.
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx database.TxQuerier, orderID int64, status model.OrderStatus) error {
	_, err := tx.Exec(ctx, `UPDATE "order" SET status = $1, updated_at = now() WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("update order %d status: %w", orderID, err)
	}
	return nil
}

// GetByID retrieves one order by ID, read-only.
func (r *OrderRepository) GetByID(ctx context.Context, tx database.TxQuerier, id int64) (*model.Order, error) {
	row := tx.QueryRow(ctx,
		`SELECT id, user_id, status, total_amount, items, coupon_code, discount_amount, created_at, updated_at
		 FROM "order" WHERE id = $1`, id)
	return scanOrder(row)
}

// ListByUserID retrieves every order belonging to userID, newest first.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64) ([]*model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, status, total_amount, items, coupon_code, discount_amount, created_at, updated_at
		 FROM "order" WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	var itemsJSON []byte
	var couponCode *string
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &itemsJSON, &couponCode, &o.DiscountAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("order not found")
		}
		return nil, err
	}
	if couponCode != nil {
		o.CouponCode = *couponCode
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &o, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
