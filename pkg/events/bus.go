// Package events provides the synchronous lifecycle event bus used by the
// orchestrator. Delivery is ordered, subscriber failures are isolated, and
// unsubscribing is O(1) and safe from within a handler.
package events

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/log"
)

type (
	// Handler receives a lifecycle event. Handlers run synchronously on
	// the emitting goroutine; a panic in one handler is recovered and does
	// not prevent the remaining handlers from running.
	Handler func(*api.FlowEvent)

	// Subscription is the handle returned by On, used to unsubscribe
	Subscription struct {
		eventType api.EventType
		id        int
	}

	// Bus is a typed pub/sub hub keyed by event type
	Bus struct {
		subs   map[api.EventType]map[int]Handler
		nextID int
		mu     sync.Mutex
	}
)

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{
		subs: map[api.EventType]map[int]Handler{},
	}
}

// On registers a handler for the given event type and returns its
// subscription handle
func (b *Bus) On(t api.EventType, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.subs[t]
	if !ok {
		handlers = map[int]Handler{}
		b.subs[t] = handlers
	}

	b.nextID++
	handlers[b.nextID] = h
	return &Subscription{eventType: t, id: b.nextID}
}

// OnAll registers a handler for every lifecycle event type and returns the
// subscription handles
func (b *Bus) OnAll(h Handler) []*Subscription {
	subs := make([]*Subscription, len(api.EventTypes))
	for i, t := range api.EventTypes {
		subs[i] = b.On(t, h)
	}
	return subs
}

// Off removes a subscription. Removing an already removed subscription is a
// no-op.
func (b *Bus) Off(s *Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.subs[s.eventType]; ok {
		delete(handlers, s.id)
	}
}

// Emit delivers the event to every subscriber for its type, in subscription
// order, before returning. Handlers registered or removed by a running
// handler take effect from the next emission.
func (b *Bus) Emit(ev *api.FlowEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	for _, h := range b.snapshot(ev.Type) {
		b.invoke(h, ev)
	}
}

func (b *Bus) snapshot(t api.EventType) []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.subs[t]
	if len(handlers) == 0 {
		return nil
	}

	ids := make([]int, 0, len(handlers))
	for id := range handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	res := make([]Handler, len(ids))
	for i, id := range ids {
		res[i] = handlers[id]
	}
	return res
}

// invoke isolates a single handler call so that a panicking subscriber
// cannot affect its peers or the emitting orchestrator method
func (b *Bus) invoke(h Handler, ev *api.FlowEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked",
				log.EventType(ev.Type),
				log.FlowID(ev.FlowID),
				slog.Any("panic", r))
		}
	}()
	h(ev)
}
