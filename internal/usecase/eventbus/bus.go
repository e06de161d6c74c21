package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"jklm-bridge/internal/domain"
)

type subscription struct {
	id      uint64
	handler domain.GameEventHandler
}

// Bus is an in-process event bus for observed game events.
//
// Unlike a fan-out bus, Publish runs every handler synchronously on the
// caller's goroutine, in subscription order, so events reach subscribers in
// exactly the order they were observed. A panicking handler is recovered and
// logged; the remaining handlers still run.
type Bus struct {
	mu      sync.RWMutex
	named   map[string][]subscription
	allSubs []subscription
	nextID  atomic.Uint64
	logger  *slog.Logger
	closed  atomic.Bool
}

// New creates an event bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		named:  make(map[string][]subscription),
		logger: logger,
	}
}

// Publish delivers an event to all-event subscribers, then to subscribers of
// the event's name.
func (b *Bus) Publish(ctx context.Context, event domain.GameEvent) {
	if b.closed.Load() {
		return
	}

	b.mu.RLock()
	allSubs := make([]subscription, len(b.allSubs))
	copy(allSubs, b.allSubs)
	named := make([]subscription, len(b.named[event.Name]))
	copy(named, b.named[event.Name])
	b.mu.RUnlock()

	for _, sub := range allSubs {
		b.dispatch(ctx, event, sub)
	}
	for _, sub := range named {
		b.dispatch(ctx, event, sub)
	}
}

func (b *Bus) dispatch(ctx context.Context, event domain.GameEvent, sub subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", event.Name,
				"panic", r,
			)
		}
	}()
	sub.handler(ctx, event)
}

// Subscribe registers a handler for events with the given name.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(name string, handler domain.GameEventHandler) func() {
	id := b.nextID.Add(1)
	sub := subscription{id: id, handler: handler}

	b.mu.Lock()
	b.named[name] = append(b.named[name], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.named[name]
		for i, s := range subs {
			if s.id == id {
				b.named[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers a handler that receives every event.
// Returns an unsubscribe function.
func (b *Bus) SubscribeAll(handler domain.GameEventHandler) func() {
	id := b.nextID.Add(1)
	sub := subscription{id: id, handler: handler}

	b.mu.Lock()
	b.allSubs = append(b.allSubs, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.allSubs {
			if s.id == id {
				b.allSubs = append(b.allSubs[:i:i], b.allSubs[i+1:]...)
				return
			}
		}
	}
}

// Close prevents further deliveries. Close is idempotent.
func (b *Bus) Close() {
	b.closed.Store(true)
}
