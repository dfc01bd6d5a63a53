package model

import "time"

// DiscountType identifies how a Coupon's Value is applied to a subtotal.
type DiscountType string

const (
	DiscountFixed      DiscountType = "FIXED"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

// Coupon is a shared, read-mostly template. Value is either a minor-unit
// amount (DiscountFixed) or an integer percentage 0-100 (DiscountPercentage).
type Coupon struct {
	Code         string
	DiscountType DiscountType
	Value        int64
	CreatedAt    time.Time
}

// Discount computes the amount to subtract from subtotal for this coupon.
// Fixed discounts never exceed the subtotal; percentage discounts round to
// the nearest minor unit.
func (c *Coupon) Discount(subtotal int64) int64 {
	switch c.DiscountType {
	case DiscountFixed:
		if c.Value > subtotal {
			return subtotal
		}
		return c.Value
	case DiscountPercentage:
		return (subtotal*c.Value + 50) / 100
	default:
		return 0
	}
}

// UserCoupon binds a user to a coupon template. Used transitions false->true
// exactly once, enforced by the optimistic Version compare-and-swap in
// internal/coupon.
type UserCoupon struct {
	UserID     int64
	CouponCode string
	Used       bool
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
