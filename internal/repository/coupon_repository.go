package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// CouponRepository provides data access for coupon templates and the
// optimistic-locked UserCoupon join row.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// GetByCode retrieves a coupon template. Templates are shared read-mostly
// state; no locking is ever taken on this row.
func (r *CouponRepository) GetByCode(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	row := tx.QueryRow(ctx, `SELECT code, discount_type, value, created_at FROM coupon WHERE code = $1`, code)
	var c model.Coupon
	err := row.Scan(&c.Code, &c.DiscountType, &c.Value, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("coupon %q not found", code)
		}
		return nil, fmt.Errorf("get coupon %s: %w", code, err)
	}
	return &c, nil
}

// GetUserCoupon retrieves the (userID, couponCode) binding without locking;
// the compare-and-swap in MarkUsed is what actually enforces single use.
func (r *CouponRepository) GetUserCoupon(ctx context.Context, tx database.TxQuerier, userID int64, code string) (*model.UserCoupon, error) {
	row := tx.QueryRow(ctx,
		`SELECT user_id, coupon_code, used, version, created_at, updated_at
		 FROM user_coupon WHERE user_id = $1 AND coupon_code = $2`, userID, code)
	var uc model.UserCoupon
	err := row.Scan(&uc.UserID, &uc.CouponCode, &uc.Used, &uc.Version, &uc.CreatedAt, &uc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("coupon %q not owned by user", code)
		}
		return nil, fmt.Errorf("get user_coupon %d/%s: %w", userID, code, err)
	}
	return &uc, nil
}

// MarkUsed flips used=false->true via a version compare-and-swap. It never
// takes a row lock: a losing writer gets zero rows affected and is mapped to
// CONFLICT by the caller, so concurrent redemption of the same coupon is
// resolved optimistically rather than by blocking.
func (r *CouponRepository) MarkUsed(ctx context.Context, tx database.TxQuerier, userID int64, code string, expectedVersion int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE user_coupon SET used = true, version = version + 1, updated_at = now()
		 WHERE user_id = $1 AND coupon_code = $2 AND version = $3 AND used = false`,
		userID, code, expectedVersion)
	if err != nil {
		return fmt.Errorf("mark user_coupon used %d/%s: %w", userID, code, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("coupon already used")
	}
	return nil
}
