package goRealtime

import (
	"log"
	"sync"
	"sync/atomic"
)

// Handler consumes one published event. Handlers for the same Kind fire in
// registration order; a panic in one handler is recovered and does not stop
// the handlers after it.
type Handler func(Event)

// Bus is the typed publish/subscribe register between the transport and
// UI-facing consumers. It holds no goroutines: Publish runs handlers
// synchronously in the caller's goroutine, which preserves the order
// envelopes were received in.
type Bus struct {
	mu      sync.Mutex
	subs    [kindCount][]*Subscription
	metrics *Metrics

	// chanBuffer is the Chan buffer used when the caller passes <= 0.
	// The builder sets it from EventsConfig.ChanBuffer.
	chanBuffer int
}

// Subscription is a cancellable handle to one registered handler.
type Subscription struct {
	bus       *Bus
	kind      Kind
	handler   Handler
	cancelled atomic.Bool
}

// NewBus creates an empty bus. A Client builds its own; standalone use is
// supported for tests and embedders. metrics may be nil.
func NewBus(metrics *Metrics) *Bus {
	return &Bus{metrics: metrics}
}

// Subscribe registers a handler for one event kind and returns its handle.
func (b *Bus) Subscribe(kind Kind, fn Handler) *Subscription {
	sub := &Subscription{bus: b, kind: kind, handler: fn}
	if fn == nil || kind >= kindCount {
		sub.cancelled.Store(true)
		return sub
	}

	b.mu.Lock()
	// Copy-on-write: Publish snapshots the slice header outside the lock,
	// so the registered slice is never mutated in place.
	existing := b.subs[kind]
	next := make([]*Subscription, len(existing)+1)
	copy(next, existing)
	next[len(existing)] = sub
	b.subs[kind] = next
	b.mu.Unlock()

	return sub
}

// Chan registers a channel subscription for one event kind. Events are
// delivered without blocking: when the buffer is full the event is dropped
// and counted, so one slow consumer can never stall dispatch for the rest.
// A buffer <= 0 uses the configured EventsConfig.ChanBuffer default.
func (b *Bus) Chan(kind Kind, buffer int) (<-chan Event, *Subscription) {
	if buffer <= 0 {
		buffer = b.chanBuffer
	}
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	sub := b.Subscribe(kind, func(event Event) {
		select {
		case ch <- event:
		default:
			b.metrics.Inc(MetricBusEventDropped)
		}
	})
	return ch, sub
}

// Cancel removes the handler. It is safe to call from within the handler's
// own invocation and never disturbs a dispatch already in progress: handlers
// registered after this one in the same dispatch still fire.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	if s.cancelled.Swap(true) {
		return
	}

	b := s.bus
	b.mu.Lock()
	existing := b.subs[s.kind]
	next := make([]*Subscription, 0, len(existing))
	for _, sub := range existing {
		if sub != s {
			next = append(next, sub)
		}
	}
	b.subs[s.kind] = next
	b.mu.Unlock()
}

// Publish delivers the event to every live subscriber of its kind, in
// registration order.
func (b *Bus) Publish(event Event) {
	if event == nil {
		return
	}
	kind := event.Kind()
	if kind >= kindCount {
		return
	}

	b.mu.Lock()
	snapshot := b.subs[kind]
	b.mu.Unlock()

	for _, sub := range snapshot {
		if sub.cancelled.Load() {
			continue
		}
		b.invoke(sub, event)
	}
}

func (b *Bus) invoke(sub *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.Inc(MetricBusHandlerPanic)
			log.Printf("goRealtime: event handler panic: %v", r)
		}
	}()
	sub.handler(event)
}
