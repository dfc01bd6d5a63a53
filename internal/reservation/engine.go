// Package reservation performs exclusive reads and modifications of
// User.Point and Product.Stock in the globally fixed lock-acquisition order
// (User, then Products ascending by ID) that prevents deadlock across
// concurrent orders touching overlapping rows.
package reservation

import (
	"context"
	"sort"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// UserLocker locks and mutates the user row.
type UserLocker interface {
	LockExclusiveByExternalID(ctx context.Context, tx database.TxQuerier, externalUserID string) (*model.User, error)
	UpdatePoint(ctx context.Context, tx database.TxQuerier, userID int64, newPoint int64) error
}

// ProductLocker locks and mutates product rows.
type ProductLocker interface {
	LockExclusiveByIDs(ctx context.Context, tx database.TxQuerier, productIDs []int64) (map[int64]*model.Product, error)
	UpdateStock(ctx context.Context, tx database.TxQuerier, productID int64, newStock int64) error
}

// Engine locks users and products in a canonical order and mutates their
// stock/point balances within the caller's transaction.
type Engine struct {
	users    UserLocker
	products ProductLocker
}

// New builds an Engine over the given repositories.
func New(users UserLocker, products ProductLocker) *Engine {
	return &Engine{users: users, products: products}
}

// LockUserExclusive acquires a row-level exclusive hold on the user keyed by
// externalUserID. Must be called before LockProductsExclusive within the
// same transaction — User, then Products ascending — the sole
// deadlock-avoidance mechanism in this system.
func (e *Engine) LockUserExclusive(ctx context.Context, tx database.TxQuerier, externalUserID string) (*model.User, error) {
	return e.users.LockExclusiveByExternalID(ctx, tx, externalUserID)
}

// LockProductsExclusive sorts productIDs ascending and acquires a row-level
// exclusive hold on each, in that order. Duplicate IDs must be rejected by
// the caller before this is invoked.
func (e *Engine) LockProductsExclusive(ctx context.Context, tx database.TxQuerier, productIDs []int64) (map[int64]*model.Product, error) {
	sorted := append([]int64(nil), productIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return e.products.LockExclusiveByIDs(ctx, tx, sorted)
}

// DecreaseStock decreases product's stock by quantity inside tx. product
// must already be locked by LockProductsExclusive in the same transaction.
func (e *Engine) DecreaseStock(ctx context.Context, tx database.TxQuerier, product *model.Product, quantity int64) error {
	if quantity <= 0 {
		return apperr.BadRequestf("quantity must be positive, got %d", quantity)
	}
	if product.Stock < quantity {
		return apperr.BadRequestf("insufficient stock for product %d: have %d, need %d", product.ID, product.Stock, quantity)
	}
	product.Stock -= quantity
	return e.products.UpdateStock(ctx, tx, product.ID, product.Stock)
}

// RestoreStock is the inverse of DecreaseStock, used during cancellation.
func (e *Engine) RestoreStock(ctx context.Context, tx database.TxQuerier, product *model.Product, quantity int64) error {
	if quantity <= 0 {
		return apperr.BadRequestf("quantity must be positive, got %d", quantity)
	}
	product.Stock += quantity
	return e.products.UpdateStock(ctx, tx, product.ID, product.Stock)
}

// DeductPoint deducts amount from user's point balance inside tx. user must
// already be locked by LockUserExclusive in the same transaction.
func (e *Engine) DeductPoint(ctx context.Context, tx database.TxQuerier, user *model.User, amount int64) error {
	if amount > user.Point {
		return apperr.BadRequestf("insufficient point for user %d: have %d, need %d", user.ID, user.Point, amount)
	}
	user.Point -= amount
	return e.users.UpdatePoint(ctx, tx, user.ID, user.Point)
}

// ReceivePoint is the inverse of DeductPoint, used during cancellation.
func (e *Engine) ReceivePoint(ctx context.Context, tx database.TxQuerier, user *model.User, amount int64) error {
	user.Point += amount
	return e.users.UpdatePoint(ctx, tx, user.ID, user.Point)
}
