// Package coupon implements single-use coupon redemption: load the
// UserCoupon, reject if missing or already used, compute the discount, then
// flip used=true with an optimistic version compare-and-swap so concurrent
// redemption attempts race without holding a row lock.
package coupon

import (
	"context"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// Store is the data-access surface this package needs.
type Store interface {
	GetByCode(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	GetUserCoupon(ctx context.Context, tx database.TxQuerier, userID int64, code string) (*model.UserCoupon, error)
	MarkUsed(ctx context.Context, tx database.TxQuerier, userID int64, code string, expectedVersion int64) error
}

// Redeemer applies at most one coupon per order.
type Redeemer struct {
	store Store
}

// New builds a Redeemer over the given store.
func New(store Store) *Redeemer {
	return &Redeemer{store: store}
}

// Redeem loads userID's binding to code, rejects it if missing or already
// used, computes the discount against subtotal, and marks the coupon used
// via a version CAS. A CAS loss surfaces as apperr.Conflict with a
// coupon-already-used message, mapped by the orchestrator to a 409 — never
// retried silently.
func (r *Redeemer) Redeem(ctx context.Context, tx database.TxQuerier, userID int64, code string, subtotal int64) (int64, error) {
	uc, err := r.store.GetUserCoupon(ctx, tx, userID, code)
	if err != nil {
		return 0, err
	}
	if uc.Used {
		return 0, apperr.Conflictf("coupon already used")
	}

	tmpl, err := r.store.GetByCode(ctx, tx, code)
	if err != nil {
		return 0, err
	}

	discount := tmpl.Discount(subtotal)

	if err := r.store.MarkUsed(ctx, tx, userID, code, uc.Version); err != nil {
		return 0, err
	}

	return discount, nil
}
