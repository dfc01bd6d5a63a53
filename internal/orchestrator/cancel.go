package orchestrator

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// CancelOrder locks user and products in the canonical order, moves a
// PENDING order to CANCELED, restores stock for each item, and refunds only
// the Payment's UsedPoint - never the Order's TotalAmount, which was never
// taken from the user's point balance in the first place.
func (o *Orchestrator) CancelOrder(ctx context.Context, externalUserID string, orderID int64, reason string) (*model.Order, error) {
	var result *model.Order

	err := database.WithTx(ctx, o.beginner, func(tx pgx.Tx) error {
		ord, err := o.orders.GetByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if ord.Status != model.OrderPending {
			return apperr.BadRequestf("order %d is %s, cannot cancel", orderID, ord.Status)
		}

		pmt, err := o.payments.GetByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if err := o.restoreOrderResources(ctx, tx, externalUserID, ord, pmt); err != nil {
			return err
		}

		ord.Cancel()
		if err := o.orders.UpdateStatus(ctx, tx, ord.ID, model.OrderCanceled); err != nil {
			return err
		}

		o.bridge.Publish(ctx, tx, orderEvent(model.EventOrderCanceled, ord))
		result = ord
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// restoreOrderResources re-acquires the canonical User-then-Products lock
// order and restores stock/point for every item on ord. Shared by
// CancelOrder and the post-commit business-failure path so refund semantics
// never diverge between the two call sites.
func (o *Orchestrator) restoreOrderResources(ctx context.Context, tx pgx.Tx, externalUserID string, ord *model.Order, pmt *model.Payment) error {
	user, err := o.reservation.LockUserExclusive(ctx, tx, externalUserID)
	if err != nil {
		return err
	}
	if user.ID != ord.UserID {
		return apperr.NotFoundf("order %d not found for this user", ord.ID)
	}

	productIDs := make([]int64, 0, len(ord.Items))
	for _, it := range ord.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	products, err := o.reservation.LockProductsExclusive(ctx, tx, productIDs)
	if err != nil {
		return err
	}

	for _, it := range ord.Items {
		if err := o.reservation.RestoreStock(ctx, tx, products[it.ProductID], it.Quantity); err != nil {
			return err
		}
	}

	if pmt.UsedPoint > 0 {
		if err := o.reservation.ReceivePoint(ctx, tx, user, pmt.UsedPoint); err != nil {
			return err
		}
	}
	return nil
}

// GetOrder is a read-only lookup; it declares no write intent so the store
// may use a lighter lock mode.
func (o *Orchestrator) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return o.orders.GetByID(ctx, o.pool, orderID)
}

// GetOrders lists every order belonging to the user identified by
// externalUserID's resolved internal ID.
func (o *Orchestrator) GetOrders(ctx context.Context, userID int64) ([]*model.Order, error) {
	return o.orders.ListByUserID(ctx, userID)
}
