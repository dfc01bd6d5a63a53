package model

import "time"

// OutboxEvent is a transactionally-written row awaiting publication by the
// dispatcher. (AggregateType, AggregateID, Version) is unique; Version is
// chosen as one greater than the current maximum for that aggregate,
// computed inside the same transaction that produces the event.
type OutboxEvent struct {
	ID            int64
	AggregateType string
	AggregateID   int64
	EventType     string
	Payload       []byte
	PartitionKey  string
	Version       int64
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// Published reports whether the dispatcher has already stamped this row.
func (e *OutboxEvent) Published() bool {
	return e.PublishedAt != nil
}

// Event types produced by the orchestrator and consumed by the outbox
// dispatcher's downstream handlers. Natural keys for idempotent consumption
// are carried inside the payload (see internal/outbox/payloads.go).
const (
	EventOrderCreated      = "OrderCreated"
	EventOrderCompleted    = "OrderCompleted"
	EventOrderCanceled     = "OrderCanceled"
	EventPaymentCreated    = "PaymentCreated"
	EventPaymentCompleted  = "PaymentCompleted"
	EventPaymentFailed     = "PaymentFailed"
)

const (
	AggregateOrder   = "Order"
	AggregatePayment = "Payment"
)
