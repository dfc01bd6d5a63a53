package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomcore/purchasing-core/internal/model"
)

func TestPublisher_Dispatch_InvokesHandlersForMatchingType(t *testing.T) {
	p := NewPublisher()
	var calls []string
	p.Subscribe(model.EventOrderCreated, func(ctx context.Context, event *model.OutboxEvent) error {
		calls = append(calls, "first")
		return nil
	})
	p.Subscribe(model.EventOrderCreated, func(ctx context.Context, event *model.OutboxEvent) error {
		calls = append(calls, "second")
		return nil
	})
	p.Subscribe(model.EventOrderCanceled, func(ctx context.Context, event *model.OutboxEvent) error {
		calls = append(calls, "unrelated")
		return nil
	})

	err := p.Dispatch(context.Background(), &model.OutboxEvent{EventType: model.EventOrderCreated})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPublisher_Dispatch_StopsAtFirstError(t *testing.T) {
	p := NewPublisher()
	var calls []string
	p.Subscribe(model.EventOrderCreated, func(ctx context.Context, event *model.OutboxEvent) error {
		calls = append(calls, "first")
		return errors.New("handler failed")
	})
	p.Subscribe(model.EventOrderCreated, func(ctx context.Context, event *model.OutboxEvent) error {
		calls = append(calls, "second")
		return nil
	})

	err := p.Dispatch(context.Background(), &model.OutboxEvent{EventType: model.EventOrderCreated, AggregateID: 5})
	require.Error(t, err)
	assert.Equal(t, []string{"first"}, calls, "a later handler must not run once an earlier one fails")
}

func TestPublisher_Dispatch_NoHandlersIsNoOp(t *testing.T) {
	p := NewPublisher()
	err := p.Dispatch(context.Background(), &model.OutboxEvent{EventType: "Unregistered"})
	assert.NoError(t, err)
}
