package usecase

import (
	"context"
	"log/slog"

	"jklm-bridge/internal/domain"
	"jklm-bridge/internal/usecase/eventbus"
)

// Interceptor owns the single "current game channel" slot and the raw event
// subscription point. It may see any number of channels over its life; a new
// channel silently supersedes the previous one. Readers must call Current
// every time rather than keep the returned value.
//
// Interceptor is not safe for concurrent use; the Bridge loop owns it.
type Interceptor struct {
	current domain.GameChannel
	bus     *eventbus.Bus
	logger  *slog.Logger
}

// NewInterceptor creates an Interceptor with no channel.
func NewInterceptor(bus *eventbus.Bus, logger *slog.Logger) *Interceptor {
	return &Interceptor{bus: bus, logger: logger}
}

// Attach makes ch the current channel.
func (i *Interceptor) Attach(ch domain.GameChannel) {
	if i.current != nil && i.current.ID() != ch.ID() {
		i.logger.Info("game channel superseded", "previous", i.current.ID(), "channel_id", ch.ID())
	} else {
		i.logger.Info("game channel captured", "channel_id", ch.ID())
	}
	i.current = ch
}

// Detach clears the slot if id is the current channel. A close notice for an
// already superseded channel is ignored.
func (i *Interceptor) Detach(id string) bool {
	if i.current == nil || i.current.ID() != id {
		return false
	}
	i.logger.Info("game channel closed", "channel_id", id)
	i.current = nil
	return true
}

// Current returns the live channel, or nil.
func (i *Interceptor) Current() domain.GameChannel { return i.current }

// Subscribe registers handler for every observed event, in arrival order.
func (i *Interceptor) Subscribe(handler domain.GameEventHandler) func() {
	return i.bus.SubscribeAll(handler)
}

// SubscribeEvent registers handler for events called name. Handlers for a
// name run after the Subscribe handlers have seen the same event.
func (i *Interceptor) SubscribeEvent(name string, handler domain.GameEventHandler) func() {
	return i.bus.Subscribe(name, handler)
}

// Observe delivers one event to every subscriber before returning.
func (i *Interceptor) Observe(ctx context.Context, event domain.GameEvent) {
	i.bus.Publish(ctx, event)
}
