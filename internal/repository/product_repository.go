package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// ProductRepository provides data access for products using pgx.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepository with the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.BrandID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LockExclusiveByIDs sorts productIDs ascending and acquires a row-level
// exclusive hold on each in that order. The sort is the deadlock-prevention
// invariant described in the Reservation Engine spec and must never be
// skipped, even for a single-element batch, so every call site stays
// uniform. Lock-ordering invariant: this must only be called after the
// caller has already locked the User row for the same transaction.
func (r *ProductRepository) LockExclusiveByIDs(ctx context.Context, tx database.TxQuerier, productIDs []int64) (map[int64]*model.Product, error) {
	sorted := append([]int64(nil), productIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	result := make(map[int64]*model.Product, len(sorted))
	for _, id := range sorted {
		row := tx.QueryRow(ctx,
			`SELECT id, name, price, stock, brand_id, created_at, updated_at
			 FROM product WHERE id = $1 FOR UPDATE`, id)
		p, err := scanProduct(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperr.NotFoundf("product %d not found", id)
			}
			return nil, fmt.Errorf("lock product %d: %w", id, err)
		}
		result[p.ID] = p
	}
	return result, nil
}

// UpdateStock persists a product's new stock level inside tx. Callers must
// already hold the row's exclusive lock from LockExclusiveByIDs.
func (r *ProductRepository) UpdateStock(ctx context.Context, tx database.TxQuerier, productID int64, newStock int64) error {
	_, err := tx.Exec(ctx, `UPDATE product SET stock = $1, updated_at = now() WHERE id = $2`, newStock, productID)
	if err != nil {
		return fmt.Errorf("update stock for product %d: %w", productID, err)
	}
	return nil
}

// GetByID retrieves a product without locking, for read-only callers.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, price, stock, brand_id, created_at, updated_at FROM product WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("product %d not found", id)
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}
