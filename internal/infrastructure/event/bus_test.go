package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduops/backend/internal/domain/shared"
)

type testHandler struct {
	eventTypes []string
	received   []shared.DomainEvent
	err        error
	panics     bool
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func newTestEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "Invoice", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{eventTypes: []string{"billing.invoice.paid"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("billing.invoice.paid"))
	require.NoError(t, err)
	require.Len(t, handler.received, 1)
	assert.Equal(t, "billing.invoice.paid", handler.received[0].EventType())
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	paidHandler := &testHandler{eventTypes: []string{"billing.invoice.paid"}}
	wildcardHandler := &testHandler{}
	bus.Subscribe(paidHandler)
	bus.Subscribe(wildcardHandler)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("billing.invoice.paid"),
		newTestEvent("billing.commission.accrued"),
	))

	assert.Len(t, paidHandler.received, 1)
	assert.Len(t, wildcardHandler.received, 2)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &testHandler{eventTypes: []string{"billing.invoice.paid"}, err: errors.New("boom")}
	healthy := &testHandler{eventTypes: []string{"billing.invoice.paid"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("billing.invoice.paid"))
	require.NoError(t, err)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &testHandler{eventTypes: []string{"billing.invoice.paid"}, panics: true}
	healthy := &testHandler{eventTypes: []string{"billing.invoice.paid"}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("billing.invoice.paid"))
	})
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{eventTypes: []string{"billing.invoice.paid"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("billing.invoice.paid")))
	assert.Empty(t, handler.received)
}
