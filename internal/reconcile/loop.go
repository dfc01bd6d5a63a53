// Package reconcile periodically cross-checks PENDING payments against the
// PG ledger, resolving orders the online path could not: a crashed process,
// a dropped callback, or an EXTERNAL_SYSTEM_FAILURE that left an order
// deliberately PENDING.
package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/pg"
)

// PaymentLister lists PENDING payments older than a staleness threshold.
type PaymentLister interface {
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error)
}

// UserResolver resolves a Payment's owning user to its externalUserId, the
// identifier the PG port needs.
type UserResolver interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// OrderDriver is the subset of the orchestrator the loop drives payments
// through - the same idempotent entry points the online path uses, so a
// race between a late callback and a reconciliation tick is harmless.
type OrderDriver interface {
	ReconcileSuccess(ctx context.Context, orderID, paymentID int64)
	ReconcileFailure(ctx context.Context, externalUserID string, orderID, paymentID int64, reason string)
}

// Loop is the ticker-driven reconciliation process.
type Loop struct {
	payments PaymentLister
	users    UserResolver
	driver   OrderDriver
	pg       pg.Port

	interval       time.Duration
	staleThreshold time.Duration
	batchSize      int

	snapshot *Snapshot
}

// New builds a Loop. pgPort should be a pg.SchedulerAdapter so status
// lookups get bounded retry, unlike the latency-bound online request path.
func New(payments PaymentLister, users UserResolver, driver OrderDriver, pgPort pg.Port, interval, staleThreshold time.Duration, batchSize int) *Loop {
	return &Loop{
		payments:       payments,
		users:          users,
		driver:         driver,
		pg:             pgPort,
		interval:       interval,
		staleThreshold: staleThreshold,
		batchSize:      batchSize,
		snapshot:       NewSnapshot(),
	}
}

// daySummary is the reconciliation tally cached under one date key.
type daySummary struct {
	Scanned int `json:"scanned"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Report returns the cached reconciliation tally for dateKey (YYYY-MM-DD),
// if a tick has run for that day and it has not since been evicted.
func (l *Loop) Report(dateKey string) (Page, bool) {
	return l.snapshot.Get(dateKey)
}

// Run blocks polling on a ticker until ctx is canceled. Intended to be
// launched via an errgroup.Group alongside the outbox dispatcher, so
// cmd/api can wait for both to exit cleanly during shutdown.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	now := time.Now()
	stale, err := l.payments.ListStalePending(ctx, now.Add(-l.staleThreshold), l.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("reconciliation loop failed to list stale pending payments")
		return
	}

	summary := daySummary{Scanned: len(stale)}
	for _, p := range stale {
		l.reconcileOne(ctx, p, &summary)
	}
	l.recordSummary(now, summary)
}

func (l *Loop) reconcileOne(ctx context.Context, p *model.Payment, summary *daySummary) {
	user, err := l.users.GetByID(ctx, p.UserID)
	if err != nil {
		log.Error().Err(err).Int64("payment_id", p.ID).Msg("reconciliation loop could not resolve payment's user")
		summary.Pending++
		return
	}

	status, err := l.pg.GetStatusByOrder(ctx, user.ExternalUserID, pg.PadOrderID(p.OrderID))
	if err != nil {
		log.Warn().Err(err).Int64("order_id", p.OrderID).Msg("reconciliation loop status lookup failed, will retry next tick")
		summary.Pending++
		return
	}

	switch status {
	case pg.LedgerSuccess:
		l.driver.ReconcileSuccess(ctx, p.OrderID, p.ID)
		summary.Success++
	case pg.LedgerFailed:
		l.driver.ReconcileFailure(ctx, user.ExternalUserID, p.OrderID, p.ID, "PG ledger reports FAILED")
		summary.Failed++
	case pg.LedgerPending:
		// Still pending at the PG; leave it for a later tick.
		summary.Pending++
	}
}

// recordSummary merges summary into the running tally cached for now's date,
// so a day with several ticks accumulates rather than overwrites.
func (l *Loop) recordSummary(now time.Time, summary daySummary) {
	dateKey := now.Format("2006-01-02")

	if prev, ok := l.snapshot.Get(dateKey); ok {
		var merged daySummary
		if err := json.Unmarshal(prev.Items, &merged); err == nil {
			summary.Scanned += merged.Scanned
			summary.Success += merged.Success
			summary.Failed += merged.Failed
			summary.Pending += merged.Pending
		}
	}

	data, err := json.Marshal(summary)
	if err != nil {
		log.Error().Err(err).Msg("reconciliation loop failed to marshal day summary")
		return
	}
	l.snapshot.Set(dateKey, Page{Items: data})
}
