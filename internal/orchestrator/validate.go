package orchestrator

import (
	"strings"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
)

// validateCreateOrderCommand rejects a malformed request before any lock is taken.
func validateCreateOrderCommand(cmd CreateOrderCommand) error {
	if strings.TrimSpace(cmd.ExternalUserID) == "" {
		return apperr.BadRequestf("externalUserId is required")
	}
	if len(cmd.Items) == 0 {
		return apperr.BadRequestf("items must not be empty")
	}
	if cmd.UsedPoint < 0 {
		return apperr.BadRequestf("usedPoint must be >= 0")
	}
	for _, it := range cmd.Items {
		if it.Quantity < 1 {
			return apperr.BadRequestf("item quantity must be >= 1, got %d for product %d", it.Quantity, it.ProductID)
		}
	}
	return nil
}

// distinctProductIDs extracts the requested product IDs, rejecting
// duplicates before any lock is taken.
func distinctProductIDs(items []OrderItemRequest) ([]int64, error) {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			return nil, apperr.BadRequestf("duplicate productId %d in request", it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids, nil
}

// buildOrderItems snapshots each requested item's current name/price from
// the already-locked products, and resolves the single coupon code applied
// to the order, rejecting more than one distinct code.
func buildOrderItems(items []OrderItemRequest, products map[int64]*model.Product) ([]model.OrderItem, string, error) {
	out := make([]model.OrderItem, 0, len(items))
	var couponCode string
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, "", apperr.NotFoundf("product %d not found", it.ProductID)
		}
		out = append(out, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
		if it.CouponCode == "" {
			continue
		}
		if couponCode != "" && couponCode != it.CouponCode {
			return nil, "", apperr.BadRequestf("only one coupon code may be applied per order")
		}
		couponCode = it.CouponCode
	}
	return out, couponCode, nil
}

func itemsSubtotal(items []model.OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Subtotal()
	}
	return sum
}

