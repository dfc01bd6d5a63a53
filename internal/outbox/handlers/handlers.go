// Package handlers holds the in-process outbox event handlers this
// repository ships out of the box. There is no external message broker:
// every downstream reaction to a domain event lives here and is wired into
// an outbox.Publisher by cmd/api.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/outbox"
)

// PointRefundHandler logs the point amount a failed payment freed up. A real
// deployment would wire this to whatever system of record tracks customer
// point balances outside this service; here it demonstrates the natural-key,
// idempotent-by-construction shape consumers should follow (re-delivery of
// the same PaymentFailed event is a no-op to log twice).
func PointRefundHandler(ctx context.Context, event *model.OutboxEvent) error {
	var payload outbox.PaymentEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payment event payload: %w", err)
	}
	log.Info().
		Int64("payment_id", payload.PaymentID).
		Int64("order_id", payload.OrderID).
		Int64("used_point", payload.UsedPoint).
		Msg("point refund acknowledged")
	return nil
}

// StockRestockHandler logs the order whose reserved stock was released back
// to inventory on cancellation.
func StockRestockHandler(ctx context.Context, event *model.OutboxEvent) error {
	var payload outbox.OrderEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal order event payload: %w", err)
	}
	log.Info().
		Int64("order_id", payload.OrderID).
		Str("status", payload.Status).
		Msg("stock restock acknowledged")
	return nil
}
