package orchestrator

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/pg"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// completeOrder moves Payment to SUCCESS and Order to COMPLETED in a fresh
// transaction (T2), both idempotently.
func (o *Orchestrator) completeOrder(ctx context.Context, orderID, paymentID int64) {
	err := database.WithTx(ctx, o.beginner, func(tx pgx.Tx) error {
		pmt, err := o.payments.LockExclusiveByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		transition, err := o.paymentSM.ToSuccess(ctx, tx, pmt)
		if err != nil {
			return err
		}
		if !transition.Changed {
			return nil
		}

		ord, err := o.orders.GetByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		ord.Complete()
		if err := o.orders.UpdateStatus(ctx, tx, ord.ID, model.OrderCompleted); err != nil {
			return err
		}

		o.bridge.Publish(ctx, tx, paymentEvent(model.EventPaymentCompleted, pmt))
		o.bridge.Publish(ctx, tx, orderEvent(model.EventOrderCompleted, ord))
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Int64("payment_id", paymentID).Msg("failed to complete order after PG success")
	}
}

// handlePGFailure reacts to a payment gateway response: a BUSINESS_FAILURE
// cancels the order in a new transaction; an EXTERNAL_SYSTEM_FAILURE leaves
// the order PENDING for the reconciliation loop to resolve. A timeout
// additionally schedules a deferred, out-of-band status lookup.
func (o *Orchestrator) handlePGFailure(ctx context.Context, externalUserID string, order *model.Order, pmt *model.Payment, failure pg.RequestFailure) {
	switch pg.Classify(failure.ErrorCode) {
	case pg.BusinessFailure:
		o.failOrder(context.Background(), externalUserID, order.ID, pmt.ID, failure.Message)
	case pg.ExternalSystemFailure:
		log.Warn().
			Str("error_code", failure.ErrorCode).
			Int64("order_id", order.ID).
			Msg("PG external-system failure, order remains PENDING for reconciliation")
		if failure.IsTimeout {
			o.scheduleRecovery(externalUserID, order.ID, pmt.ID)
		}
	}
}

// failOrder moves Payment to FAILED and Order to CANCELED in a fresh
// transaction, restoring stock and point exactly as cancelOrder does for a
// user-initiated cancellation.
func (o *Orchestrator) failOrder(ctx context.Context, externalUserID string, orderID, paymentID int64, reason string) {
	err := database.WithTx(ctx, o.beginner, func(tx pgx.Tx) error {
		pmt, err := o.payments.LockExclusiveByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		transition, err := o.paymentSM.ToFailed(ctx, tx, pmt, reason)
		if err != nil {
			return err
		}
		if !transition.Changed {
			return nil
		}

		ord, err := o.orders.GetByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if ord.Status.IsTerminal() {
			return nil
		}

		if err := o.restoreOrderResources(ctx, tx, externalUserID, ord, pmt); err != nil {
			return err
		}

		ord.Cancel()
		if err := o.orders.UpdateStatus(ctx, tx, ord.ID, model.OrderCanceled); err != nil {
			return err
		}

		o.bridge.Publish(ctx, tx, paymentEvent(model.EventPaymentFailed, pmt))
		o.bridge.Publish(ctx, tx, orderEvent(model.EventOrderCanceled, ord))
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Int64("payment_id", paymentID).Msg("failed to cancel order after PG business failure")
	}
}

// scheduleRecovery implements recoverAfterTimeout: an immediate deferred
// status lookup run off the request path, giving the PG time to settle
// before this repository trusts its answer.
func (o *Orchestrator) scheduleRecovery(externalUserID string, orderID, paymentID int64) {
	go func() {
		time.Sleep(o.recoveryDelay)
		o.recoverAfterTimeout(context.Background(), externalUserID, orderID, paymentID)
	}()
}

// ReconcileSuccess drives a PENDING payment to SUCCESS/COMPLETED via the
// same idempotent entry point the online post-commit path uses. Exported for
// the reconciliation loop.
func (o *Orchestrator) ReconcileSuccess(ctx context.Context, orderID, paymentID int64) {
	o.completeOrder(ctx, orderID, paymentID)
}

// ReconcileFailure drives a PENDING payment to FAILED/CANCELED via the same
// idempotent entry point the online post-commit path uses. Exported for the
// reconciliation loop.
func (o *Orchestrator) ReconcileFailure(ctx context.Context, externalUserID string, orderID, paymentID int64, reason string) {
	o.failOrder(ctx, externalUserID, orderID, paymentID, reason)
}

func (o *Orchestrator) recoverAfterTimeout(ctx context.Context, externalUserID string, orderID, paymentID int64) {
	status, err := o.recoveryPG.GetStatusByOrder(ctx, externalUserID, pg.PadOrderID(orderID))
	if err != nil {
		log.Warn().Err(err).Int64("order_id", orderID).Msg("recovery status lookup failed, leaving to reconciliation loop")
		return
	}

	switch status {
	case pg.LedgerSuccess:
		o.completeOrder(ctx, orderID, paymentID)
	case pg.LedgerFailed:
		o.failOrder(ctx, externalUserID, orderID, paymentID, "PG ledger reports FAILED")
	case pg.LedgerPending:
	}
}
