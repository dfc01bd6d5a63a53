// Package orchestrator coordinates the end-to-end purchase use case: it is
// the only caller that sees the Reservation Engine, Coupon Redemption,
// Payment State Machine, and PG Port at once. Nothing below this package
// knows about any of its siblings.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/config"
	"github.com/ecomcore/purchasing-core/internal/coupon"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/outbox"
	"github.com/ecomcore/purchasing-core/internal/payment"
	"github.com/ecomcore/purchasing-core/internal/pg"
	"github.com/ecomcore/purchasing-core/internal/reservation"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// OrderItemRequest is one requested line of a CreateOrderCommand.
type OrderItemRequest struct {
	ProductID  int64
	Quantity   int64
	CouponCode string
}

// CreateOrderCommand is the input to CreateOrder, already parsed from the
// HTTP layer.
type CreateOrderCommand struct {
	ExternalUserID string
	Items          []OrderItemRequest
	UsedPoint      int64
	CardType       string
	CardNo         string
}

// OrderStore is the Order-side persistence the orchestrator needs.
type OrderStore interface {
	Insert(ctx context.Context, tx database.TxQuerier, o *model.Order) error
	UpdateStatus(ctx context.Context, tx database.TxQuerier, orderID int64, status model.OrderStatus) error
	GetByID(ctx context.Context, tx database.TxQuerier, id int64) (*model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]*model.Order, error)
}

// PaymentStore is the Payment-side persistence the orchestrator needs,
// beyond what the payment state machine already wraps.
type PaymentStore interface {
	Insert(ctx context.Context, tx database.TxQuerier, p *model.Payment) error
	GetByID(ctx context.Context, tx database.TxQuerier, id int64) (*model.Payment, error)
	GetByOrderID(ctx context.Context, tx database.TxQuerier, orderID int64) (*model.Payment, error)
	LockExclusiveByID(ctx context.Context, tx database.TxQuerier, id int64) (*model.Payment, error)
}

// UserResolver resolves a user's internal ID to the full record, needed to
// recover the externalUserId a PG lookup requires.
type UserResolver interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Orchestrator implements the canonical purchase use case: reserve stock
// and coupon, run payment, and settle the order to a terminal state.
type Orchestrator struct {
	beginner database.TxBeginner
	pool     database.TxQuerier

	reservation *reservation.Engine
	coupon      *coupon.Redeemer
	paymentSM   *payment.StateMachine
	bridge      *outbox.Bridge

	orders   OrderStore
	payments PaymentStore
	users    UserResolver

	onlinePG   pg.Port
	recoveryPG pg.Port

	recoveryDelay time.Duration
}

// New builds an Orchestrator. onlinePG is used for the latency-bound
// RequestPayment call made from the post-commit hook; recoveryPG (typically
// a pg.SchedulerAdapter) is used for the bounded-retry status lookup that
// follows a PG timeout.
func New(
	beginner database.TxBeginner,
	pool database.TxQuerier,
	resEngine *reservation.Engine,
	redeemer *coupon.Redeemer,
	paymentSM *payment.StateMachine,
	bridge *outbox.Bridge,
	orders OrderStore,
	payments PaymentStore,
	users UserResolver,
	onlinePG pg.Port,
	recoveryPG pg.Port,
	cfg config.PGConfig,
) *Orchestrator {
	return &Orchestrator{
		beginner:      beginner,
		pool:          pool,
		reservation:   resEngine,
		coupon:        redeemer,
		paymentSM:     paymentSM,
		bridge:        bridge,
		orders:        orders,
		payments:      payments,
		users:         users,
		onlinePG:      onlinePG,
		recoveryPG:    recoveryPG,
		recoveryDelay: cfg.RecoveryDelay,
	}
}

// CreateOrder validates the request, locks the user and products, redeems
// any coupon, persists the Order/Payment and their stock/point side effects
// in one transaction, then - only after that transaction commits - issues
// the payment gateway call exactly once, never while the transaction is
// still open.
func (o *Orchestrator) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*model.Order, error) {
	if err := validateCreateOrderCommand(cmd); err != nil {
		return nil, err
	}

	productIDs, err := distinctProductIDs(cmd.Items)
	if err != nil {
		return nil, err
	}

	var normalizedCardNo string
	if cmd.CardNo != "" {
		normalizedCardNo, err = pg.ValidateCardNo(cmd.CardNo)
		if err != nil {
			return nil, err
		}
	}

	var order *model.Order
	var pmt *model.Payment
	var needsPGCall bool

	err = database.WithTx(ctx, o.beginner, func(tx pgx.Tx) error {
		user, err := o.reservation.LockUserExclusive(ctx, tx, cmd.ExternalUserID)
		if err != nil {
			return err
		}

		products, err := o.reservation.LockProductsExclusive(ctx, tx, productIDs)
		if err != nil {
			return err
		}

		items, couponCode, err := buildOrderItems(cmd.Items, products)
		if err != nil {
			return err
		}

		subtotal := itemsSubtotal(items)

		var discount int64
		if couponCode != "" {
			discount, err = o.coupon.Redeem(ctx, tx, user.ID, couponCode, subtotal)
			if err != nil {
				return err
			}
		}

		totalAmount := subtotal - discount
		if cmd.UsedPoint > 0 {
			if err := o.reservation.DeductPoint(ctx, tx, user, cmd.UsedPoint); err != nil {
				return err
			}
		}
		paidAmount := totalAmount - cmd.UsedPoint
		if paidAmount < 0 {
			return apperr.BadRequestf("usedPoint %d exceeds total amount %d", cmd.UsedPoint, totalAmount)
		}
		if paidAmount > 0 && normalizedCardNo == "" {
			return apperr.BadRequestf("cardNo is required when paidAmount > 0")
		}
		if paidAmount > 0 && strings.TrimSpace(cmd.CardType) == "" {
			return apperr.BadRequestf("cardType is required when paidAmount > 0")
		}

		for _, it := range cmd.Items {
			if err := o.reservation.DecreaseStock(ctx, tx, products[it.ProductID], it.Quantity); err != nil {
				return err
			}
		}

		order = &model.Order{
			UserID:         user.ID,
			Status:         model.OrderPending,
			TotalAmount:    totalAmount,
			Items:          items,
			CouponCode:     couponCode,
			DiscountAmount: discount,
		}
		if err := o.orders.Insert(ctx, tx, order); err != nil {
			return err
		}

		pmt = &model.Payment{
			OrderID:     order.ID,
			UserID:      user.ID,
			TotalAmount: totalAmount,
			UsedPoint:   cmd.UsedPoint,
			PaidAmount:  paidAmount,
			Status:      model.PaymentPending,
		}
		if paidAmount > 0 {
			pmt.CardType = cmd.CardType
			pmt.CardNo = normalizedCardNo
		} else {
			pmt.Status = model.PaymentSuccess
		}
		if err := o.payments.Insert(ctx, tx, pmt); err != nil {
			return err
		}

		o.bridge.Publish(ctx, tx, orderEvent(model.EventOrderCreated, order))
		o.bridge.Publish(ctx, tx, paymentEvent(model.EventPaymentCreated, pmt))

		if paidAmount == 0 {
			order.Complete()
			if err := o.orders.UpdateStatus(ctx, tx, order.ID, model.OrderCompleted); err != nil {
				return err
			}
			o.bridge.Publish(ctx, tx, orderEvent(model.EventOrderCompleted, order))
			o.bridge.Publish(ctx, tx, paymentEvent(model.EventPaymentCompleted, pmt))
		} else {
			needsPGCall = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if needsPGCall {
		o.runPostCommitPayment(ctx, cmd.ExternalUserID, order, pmt)
	}

	return order, nil
}

// runPostCommitPayment issues the PG call after the order transaction has
// already committed: external I/O never occupies a connection during that
// transaction, and nothing observes an in-flight order that later rolls
// back, because by this point it cannot roll back.
func (o *Orchestrator) runPostCommitPayment(ctx context.Context, externalUserID string, order *model.Order, pmt *model.Payment) {
	reqCmd := pg.RequestCommand{
		ExternalUserID: externalUserID,
		OrderID:        order.ID,
		CardType:       pmt.CardType,
		CardNo:         pmt.CardNo,
		Amount:         pmt.PaidAmount,
	}
	result, err := o.onlinePG.RequestPayment(ctx, reqCmd)
	if err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Msg("PG request payment call failed unexpectedly")
		return
	}

	switch {
	case result.Success != nil:
		o.completeOrder(ctx, order.ID, pmt.ID)
	case result.Failure != nil:
		o.handlePGFailure(ctx, externalUserID, order, pmt, *result.Failure)
	}
}
