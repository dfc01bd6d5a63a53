package orchestrator

import (
	"context"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/pg"
)

// HandleCallback reacts to a PG-initiated status push. The callback body is
// treated only as a trigger to re-check the authoritative PG ledger, never
// as the source of truth: if a callback claims SUCCESS but the ledger says
// FAILED, the ledger wins. Calling this on an already-terminal order is a
// no-op.
func (o *Orchestrator) HandleCallback(ctx context.Context, orderID int64) error {
	ord, err := o.orders.GetByID(ctx, o.pool, orderID)
	if err != nil {
		return err
	}
	if ord.Status.IsTerminal() {
		return nil
	}

	pmt, err := o.payments.GetByOrderID(ctx, o.pool, orderID)
	if err != nil {
		return err
	}
	if pmt.Status != model.PaymentPending {
		return nil
	}

	user, err := o.users.GetByID(ctx, ord.UserID)
	if err != nil {
		return err
	}

	status, err := o.onlinePG.GetStatusByOrder(ctx, user.ExternalUserID, pg.PadOrderID(orderID))
	if err != nil {
		return err
	}

	switch status {
	case pg.LedgerSuccess:
		o.ReconcileSuccess(ctx, orderID, pmt.ID)
	case pg.LedgerFailed:
		o.ReconcileFailure(ctx, user.ExternalUserID, orderID, pmt.ID, "PG ledger reports FAILED")
	case pg.LedgerPending:
	}
	return nil
}
