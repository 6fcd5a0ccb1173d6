package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// testHandler records the events it receives
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func writeoffEvent() *stock.WriteoffCreatedEvent {
	doc, _ := stock.NewWriteoffDocument(stock.ReasonProduction, "", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	doc.TotalCost = decimal.NewFromInt(1250)
	return stock.NewWriteoffCreatedEvent(doc)
}

func purchaseEvent() *stock.PurchasePostedEvent {
	doc, _ := stock.NewPurchaseDocument(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Oracal", "INV-1", "", stock.VATNone, "")
	lot := &stock.Lot{ID: uuid.New(), MaterialID: uuid.New()}
	return stock.NewPurchasePostedEvent(doc, []*stock.Lot{lot}, doc.DocDate)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(stock.EventTypeWriteoffCreated)
	bus.Subscribe(handler)

	event := writeoffEvent()
	require.NoError(t, bus.Publish(context.Background(), event, purchaseEvent()))

	handled := handler.getHandled()
	require.Len(t, handled, 1, "only the subscribed type is delivered")
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(stock.EventTypeWriteoffCreated)
	bus.Subscribe(handler, stock.EventTypePurchasePosted)

	require.NoError(t, bus.Publish(context.Background(), writeoffEvent(), purchaseEvent()))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, stock.EventTypePurchasePosted, handled[0].EventType())
}

func TestInMemoryEventBus_Wildcard(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := newTestHandler()
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), writeoffEvent(), purchaseEvent()))
	assert.Len(t, all.getHandled(), 2)
}

func TestInMemoryEventBus_FailingHandlers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler(stock.EventTypeWriteoffCreated)
	failing.err = errors.New("boom")
	panicking := newTestHandler(stock.EventTypeWriteoffCreated)
	panicking.panicWith = "nil map"
	healthy := newTestHandler(stock.EventTypeWriteoffCreated)
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), writeoffEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "handler panicked: nil map")
	assert.Len(t, healthy.getHandled(), 1, "later handlers still run")
	assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_StopDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler()
	bus.Subscribe(handler)
	ctx := context.Background()

	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Publish(ctx, writeoffEvent()))
	assert.Empty(t, handler.getHandled())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, writeoffEvent()))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(stock.EventTypePurchasePosted)
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), purchaseEvent()))
	assert.Empty(t, handler.getHandled())
}
