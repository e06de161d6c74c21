package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"jklm-bridge/internal/domain"
	"jklm-bridge/pkg/wire"
)

// Sender is the outbound half of the relay channel.
type Sender interface {
	// Send transmits one serialized envelope, reporting false when the
	// message was dropped because the relay is not connected.
	Send(msg []byte) bool
	State() domain.ConnectionState
}

// Filter decides which observed game events are relayed, encodes them, and
// keeps the snapshot cache current.
type Filter struct {
	sender  Sender
	cache   *StateCache
	logger  *slog.Logger
	dropLog rate.Sometimes
}

// NewFilter creates a Filter relaying through sender.
func NewFilter(sender Sender, cache *StateCache, logger *slog.Logger) *Filter {
	return &Filter{
		sender:  sender,
		cache:   cache,
		logger:  logger,
		dropLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Handle processes one observed event. Events outside the allow-list are
// ignored. A snapshot event is cached whether or not the relay is up.
func (f *Filter) Handle(_ context.Context, event domain.GameEvent) {
	if !wire.IsRelayed(event.Name) {
		return
	}

	data, err := wire.EncodeData(wire.Payload(event.Args))
	if err != nil {
		f.logger.Warn("dropping unserializable game event",
			"event", event.Name,
			"error", err,
			"code", string(domain.CodeEncodePayload),
		)
		return
	}

	if event.Name == wire.SnapshotEvent {
		f.cache.Store(data)
	}

	msg, err := wire.EncodeRaw(event.Name, data)
	if err != nil {
		f.logger.Warn("dropping unserializable game event", "event", event.Name, "error", err)
		return
	}
	if !f.sender.Send(msg) {
		f.dropLog.Do(func() {
			f.logger.Debug("relay not connected, dropping game events", "event", event.Name)
		})
	}
}
