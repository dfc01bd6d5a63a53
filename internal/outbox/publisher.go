package outbox

import (
	"context"
	"fmt"

	"github.com/ecomcore/purchasing-core/internal/model"
)

// Handler reacts to a dispatched event. It returns an error to signal the
// dispatcher should leave the row unpublished for a later retry.
type Handler func(ctx context.Context, event *model.OutboxEvent) error

// Publisher is an in-process handler registry keyed by event type. There is
// no external broker in this system: downstream consumers are in-process
// handlers invoked by the dispatcher after a row is read with FOR UPDATE
// SKIP LOCKED.
type Publisher struct {
	handlers map[string][]Handler
}

// NewPublisher builds an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{handlers: make(map[string][]Handler)}
}

// Subscribe registers fn to run whenever an event of eventType is dispatched.
func (p *Publisher) Subscribe(eventType string, fn Handler) {
	p.handlers[eventType] = append(p.handlers[eventType], fn)
}

// Dispatch invokes every handler registered for event.EventType in
// registration order, stopping at the first error.
func (p *Publisher) Dispatch(ctx context.Context, event *model.OutboxEvent) error {
	for _, fn := range p.handlers[event.EventType] {
		if err := fn(ctx, event); err != nil {
			return fmt.Errorf("handle %s for aggregate %d: %w", event.EventType, event.AggregateID, err)
		}
	}
	return nil
}
