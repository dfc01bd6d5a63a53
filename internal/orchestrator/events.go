package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/ecomcore/purchasing-core/internal/model"
	"github.com/ecomcore/purchasing-core/internal/outbox"
)

// orderEvent builds the outbox row for an Order-aggregate event. The
// partition key is the order ID so a single consumer instance sees every
// event for one order in insertion order.
func orderEvent(eventType string, o *model.Order) *model.OutboxEvent {
	payload, _ := json.Marshal(outbox.OrderEventPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  string(o.Status),
	})
	return &model.OutboxEvent{
		AggregateType: model.AggregateOrder,
		AggregateID:   o.ID,
		EventType:     eventType,
		Payload:       payload,
		PartitionKey:  fmt.Sprintf("order:%d", o.ID),
	}
}

// paymentEvent builds the outbox row for a Payment-aggregate event.
func paymentEvent(eventType string, p *model.Payment) *model.OutboxEvent {
	payload, _ := json.Marshal(outbox.PaymentEventPayload{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Status:    string(p.Status),
		UsedPoint: p.UsedPoint,
	})
	return &model.OutboxEvent{
		AggregateType: model.AggregatePayment,
		AggregateID:   p.ID,
		EventType:     eventType,
		Payload:       payload,
		PartitionKey:  fmt.Sprintf("payment:%d", p.ID),
	}
}
