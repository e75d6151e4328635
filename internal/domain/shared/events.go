package shared

import (
	"sync"
	"time"
)

// EventType identifies one of the closed set of domain events carried by the
// in-process bus. The set is fixed: dynamic event registration is not needed.
type EventType string

const (
	EventBufferLevelChanged   EventType = "BUFFER_LEVEL_CHANGED"
	EventBufferStateChanged   EventType = "BUFFER_STATE_CHANGED"
	EventPalletDelivered      EventType = "PALLET_DELIVERED"
	EventPalletConsumed       EventType = "PALLET_CONSUMED"
	EventPalletRequested      EventType = "PALLET_REQUESTED"
	EventForkliftStateChanged EventType = "FORKLIFT_STATE_CHANGED"
	EventTaskStreamCompleted  EventType = "TASK_STREAM_COMPLETED"
)

// Event is a domain event published on the bus. Payload is one of the typed
// payload structs below, keyed by Type.
type Event struct {
	Type       EventType
	OccurredAt time.Time
	Payload    interface{}
}

// BufferLevelChangedPayload carries the old and new fill level of the buffer.
type BufferLevelChangedPayload struct {
	PreviousLevel float64
	Level         float64
	PalletCount   int
}

// BufferStateChangedPayload carries a buffer FSM transition.
type BufferStateChangedPayload struct {
	Previous string
	Current  string
	Level    float64
}

// PalletEventPayload carries the pallet involved in a delivery, consumption
// or request event.
type PalletEventPayload struct {
	PalletID string
	SKU      string
	Quantity int
}

// ForkliftStateChangedPayload carries a forklift state transition.
type ForkliftStateChangedPayload struct {
	ForkliftID string
	Previous   string
	Current    string
	TaskID     string
}

// TaskStreamCompletedPayload carries the completed stream.
type TaskStreamCompletedPayload struct {
	StreamID       string
	SequenceNumber int
	TaskCount      int
}

// EventHandler consumes a single event. Handlers run synchronously on the
// publisher's goroutine.
type EventHandler func(Event)

// EventBus is a typed publish/subscribe registry with per-event synchronous
// fan-out. A panicking handler is isolated so that the remaining handlers
// still run.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
	clock    Clock
}

// NewEventBus creates an empty event bus.
// If clock is nil, uses RealClock.
func NewEventBus(clock Clock) *EventBus {
	if clock == nil {
		clock = NewRealClock()
	}
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
		clock:    clock,
	}
}

// Subscribe registers a handler for the given event type.
// Handlers are invoked in subscription order.
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the payload to every subscriber of the event type.
// Fan-out is synchronous; the call returns after every handler has run.
func (b *EventBus) Publish(eventType EventType, payload interface{}) {
	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	event := Event{
		Type:       eventType,
		OccurredAt: b.clock.Now(),
		Payload:    payload,
	}

	for _, handler := range handlers {
		b.safeInvoke(handler, event)
	}
}

// SubscriberCount returns the number of handlers registered for an event type.
func (b *EventBus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// safeInvoke shields the bus from a panicking handler.
func (b *EventBus) safeInvoke(handler EventHandler, event Event) {
	defer func() {
		_ = recover()
	}()
	handler(event)
}
