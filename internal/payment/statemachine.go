// Package payment owns the Payment PENDING->SUCCESS/FAILED state machine.
// Every terminal transition is idempotent: re-applying the same terminal
// state is a no-op, while a cross-terminal attempt (SUCCESS->FAILED or the
// reverse) is rejected as a reconciliation bug.
package payment

import (
	"context"

	"github.com/ecomcore/purchasing-core/internal/apperr"
	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/pkg/database"
)

// Store is the data-access surface the state machine needs.
type Store interface {
	UpdateStatus(ctx context.Context, tx database.TxQuerier, id int64, status model.PaymentStatus, failureReason string) error
}

// StateMachine drives Payment transitions.
type StateMachine struct {
	store Store
}

// New builds a StateMachine over the given store.
func New(store Store) *StateMachine {
	return &StateMachine{store: store}
}

// Transition describes the outcome of applying a terminal transition, so
// callers (orchestrator, reconciliation loop) know whether to emit a new
// domain event — idempotent no-ops must not re-emit PaymentCompleted.
type Transition struct {
	Changed bool
	Payment *model.Payment
}

// ToSuccess moves payment to SUCCESS. A no-op if already SUCCESS. Rejected
// BAD_REQUEST if the payment is FAILED — cross-terminal transitions indicate
// a reconciliation bug, never a legitimate retry.
func (sm *StateMachine) ToSuccess(ctx context.Context, tx database.TxQuerier, p *model.Payment) (Transition, error) {
	switch p.Status {
	case model.PaymentSuccess:
		return Transition{Changed: false, Payment: p}, nil
	case model.PaymentFailed:
		return Transition{}, apperr.BadRequestf("payment %d already FAILED, cannot transition to SUCCESS", p.ID)
	}

	if err := sm.store.UpdateStatus(ctx, tx, p.ID, model.PaymentSuccess, ""); err != nil {
		return Transition{}, err
	}
	p.Status = model.PaymentSuccess
	return Transition{Changed: true, Payment: p}, nil
}

// ToFailed moves payment to FAILED, recording reason. A no-op if already
// FAILED. Rejected BAD_REQUEST if the payment is SUCCESS.
func (sm *StateMachine) ToFailed(ctx context.Context, tx database.TxQuerier, p *model.Payment, reason string) (Transition, error) {
	switch p.Status {
	case model.PaymentFailed:
		return Transition{Changed: false, Payment: p}, nil
	case model.PaymentSuccess:
		return Transition{}, apperr.BadRequestf("payment %d already SUCCESS, cannot transition to FAILED", p.ID)
	}

	if err := sm.store.UpdateStatus(ctx, tx, p.ID, model.PaymentFailed, reason); err != nil {
		return Transition{}, err
	}
	p.Status = model.PaymentFailed
	p.FailureReason = reason
	return Transition{Changed: true, Payment: p}, nil
}
