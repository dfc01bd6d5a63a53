package pg

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/ecomcore/purchasing-core/internal/config"
)

// SchedulerAdapter wraps a Port's status-check calls with bounded
// exponential backoff, for use exclusively by the reconciliation loop and
// other offline/batch callers. The online request path (HTTPAdapter used
// directly from the orchestrator) must never go through this wrapper —
// retrying RequestPayment itself would risk a duplicate charge and expand
// user-facing latency past the fixed deadline.
type SchedulerAdapter struct {
	inner Port
	bo    func() backoff.BackOff
}

// NewSchedulerAdapter builds a SchedulerAdapter around inner using cfg's
// retry bound.
func NewSchedulerAdapter(inner Port, cfg config.PGConfig) *SchedulerAdapter {
	maxRetry := cfg.SchedulerMaxRetry
	return &SchedulerAdapter{
		inner: inner,
		bo: func() backoff.BackOff {
			eb := backoff.NewExponentialBackOff()
			return backoff.WithMaxRetries(eb, uint64(maxRetry))
		},
	}
}

// GetStatusByOrder retries transient failures with exponential backoff.
func (a *SchedulerAdapter) GetStatusByOrder(ctx context.Context, externalUserID, paddedOrderID string) (LedgerStatus, error) {
	var status LedgerStatus
	op := func() error {
		s, err := a.inner.GetStatusByOrder(ctx, externalUserID, paddedOrderID)
		if err != nil {
			return err
		}
		status = s
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(a.bo(), ctx)); err != nil {
		return "", err
	}
	return status, nil
}

// GetStatusByTransaction retries transient failures with exponential backoff.
func (a *SchedulerAdapter) GetStatusByTransaction(ctx context.Context, externalUserID, transactionKey string) (LedgerRecord, error) {
	var rec LedgerRecord
	op := func() error {
		r, err := a.inner.GetStatusByTransaction(ctx, externalUserID, transactionKey)
		if err != nil {
			return err
		}
		rec = r
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(a.bo(), ctx)); err != nil {
		return LedgerRecord{}, err
	}
	return rec, nil
}

// RequestPayment is implemented to satisfy Port for callers that accept the
// interface generically, but the scheduler path never calls it — only
// GetStatusByOrder/GetStatusByTransaction are used by the reconciliation
// loop.
func (a *SchedulerAdapter) RequestPayment(ctx context.Context, cmd RequestCommand) (RequestResult, error) {
	return a.inner.RequestPayment(ctx, cmd)
}
