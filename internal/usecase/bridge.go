package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/benbjohnson/clock"

	"jklm-bridge/internal/domain"
	"jklm-bridge/internal/usecase/eventbus"
	"jklm-bridge/internal/usecase/relay"
	"jklm-bridge/pkg/wire"
)

// DefaultInboxSize is the capacity of the bridge loop's inbox.
const DefaultInboxSize = 256

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	Relay     relay.Config
	InboxSize int
}

// BridgeOption configures a Bridge.
type BridgeOption func(*bridgeOptions)

type bridgeOptions struct {
	clock   clock.Clock
	packets *slog.Logger
}

// WithBridgeClock sets the clock driving reconnect timers.
func WithBridgeClock(c clock.Clock) BridgeOption {
	return func(o *bridgeOptions) { o.clock = c }
}

// WithPacketLog records every raw relay frame on l.
func WithPacketLog(l *slog.Logger) BridgeOption {
	return func(o *bridgeOptions) { o.packets = l }
}

// Bridge is the single context owning all relay state: the game channel slot,
// the relay connection, the snapshot cache and the settings. Everything it
// owns is touched only by the goroutine running Run; other goroutines reach it
// through the GameSource methods and the operator entry points, which post
// work to the loop.
type Bridge struct {
	inbox chan func()
	done  chan struct{}
	ctx   context.Context

	bus         *eventbus.Bus
	interceptor *Interceptor
	cache       *StateCache
	filter      *Filter
	executor    *Executor
	config      *ConfigSync
	relay       *relay.Manager
	surface     domain.ControlSurface
	logger      *slog.Logger
}

var _ domain.GameSource = (*Bridge)(nil)

// NewBridge wires a Bridge. Nothing runs until Run is called.
func NewBridge(dialer relay.Dialer, surface domain.ControlSurface, settings *domain.Settings, cfg BridgeConfig, logger *slog.Logger, opts ...BridgeOption) *Bridge {
	var o bridgeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultInboxSize
	}
	if settings == nil {
		settings = domain.NewSettings()
	}

	b := &Bridge{
		inbox:   make(chan func(), cfg.InboxSize),
		done:    make(chan struct{}),
		ctx:     context.Background(),
		bus:     eventbus.New(logger),
		cache:   &StateCache{},
		surface: surface,
		logger:  logger,
	}

	var relayOpts []relay.Option
	if o.clock != nil {
		relayOpts = append(relayOpts, relay.WithClock(o.clock))
	}
	if o.packets != nil {
		relayOpts = append(relayOpts, relay.WithPacketLogger(o.packets))
	}
	b.relay = relay.NewManager(dialer, relayEvents{b}, b.post, cfg.Relay, logger, relayOpts...)

	b.interceptor = NewInterceptor(b.bus, logger)
	b.filter = NewFilter(b.relay, b.cache, logger)
	b.executor = NewExecutor(b.interceptor)
	b.config = NewConfigSync(settings, b.relay, surface, logger)
	b.interceptor.Subscribe(b.filter.Handle)
	b.interceptor.SubscribeEvent(wire.SnapshotEvent, func(context.Context, domain.GameEvent) { b.pushStatus() })
	return b
}

// Run executes the bridge loop until ctx is done. Cancelling ctx is the page
// teardown: the connection, any pending reconnect and all cached state go.
func (b *Bridge) Run(ctx context.Context) error {
	b.ctx = ctx
	defer close(b.done)

	settings := b.config.Settings()
	for _, spec := range domain.SettingsSchema {
		v, _ := settings.Get(spec.Key)
		b.surface.SetSetting(spec.Key, v)
	}
	b.pushStatus()
	b.relay.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			b.shutdown()
			return nil
		case fn := <-b.inbox:
			fn()
		}
	}
}

func (b *Bridge) shutdown() {
	b.relay.Stop()
	b.bus.Close()
	b.cache.Clear()
	b.interceptor.current = nil
	b.logger.Info("bridge stopped")
}

// post queues fn for the loop. It blocks while the inbox is full and gives up
// once the loop has exited.
func (b *Bridge) post(fn func()) {
	select {
	case b.inbox <- fn:
	case <-b.done:
	}
}

// ChannelCreated implements domain.GameSource.
func (b *Bridge) ChannelCreated(ch domain.GameChannel) {
	b.post(func() {
		b.interceptor.Attach(ch)
		b.pushStatus()
	})
}

// ChannelClosed implements domain.GameSource.
func (b *Bridge) ChannelClosed(id string) {
	b.post(func() {
		if b.interceptor.Detach(id) {
			b.pushStatus()
		}
	})
}

// EventObserved implements domain.GameSource.
func (b *Bridge) EventObserved(event domain.GameEvent) {
	b.post(func() { b.interceptor.Observe(b.ctx, event) })
}

// tryPost queues fn without waiting. It reports false when the inbox is full
// or the loop has exited.
func (b *Bridge) tryPost(fn func()) bool {
	select {
	case b.inbox <- fn:
		return true
	case <-b.done:
		return false
	default:
		return false
	}
}

// ChangeSetting applies an operator edit from the control surface. It never
// blocks; an edit arriving while the loop is saturated is dropped and logged.
func (b *Bridge) ChangeSetting(key string, value any) {
	ok := b.tryPost(func() {
		if err := b.config.LocalChange(key, value); err != nil {
			b.logger.Warn("rejected setting change", "key", key, "error", err, "code", string(domain.ErrorCodeOf(err)))
		}
	})
	if !ok {
		b.logger.Warn("operator action dropped, bridge busy", "action", "change_setting", "key", key)
	}
}

// SendCustomMessage relays operator free text to the endpoint. Like
// ChangeSetting it drops the message rather than wait on a full inbox.
func (b *Bridge) SendCustomMessage(text string) {
	ok := b.tryPost(func() {
		if b.config.CustomMessage(text) {
			b.logger.Info("custom message sent", "text", text)
		}
	})
	if !ok {
		b.logger.Warn("operator action dropped, bridge busy", "action", "custom_message")
	}
}

func (b *Bridge) status() domain.Status {
	s := domain.Status{Relay: b.relay.State()}
	if ch := b.interceptor.Current(); ch != nil {
		s.ChannelID = ch.ID()
	}
	_, s.Snapshot = b.cache.Load()
	return s
}

func (b *Bridge) pushStatus() { b.surface.SetStatus(b.status()) }

// onConnected runs on entry to Connected: the full settings map first, then
// the cached snapshot.
func (b *Bridge) onConnected() {
	b.config.SendFull()
	data, ok := b.cache.Load()
	if !ok {
		return
	}
	msg, err := wire.EncodeRaw(wire.SnapshotEvent, data)
	if err != nil {
		b.logger.Error("encode snapshot replay", "error", err)
		return
	}
	if b.relay.Send(msg) {
		b.logger.Info("snapshot replayed", "bytes", len(data))
	}
}

// onMessage dispatches one inbound relay message. Every failure is logged
// once here and otherwise swallowed.
func (b *Bridge) onMessage(msg []byte) {
	if err := b.dispatch(msg); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrNoGameChannel) || errors.Is(err, domain.ErrEmitFailed) {
			level = slog.LevelError
		}
		b.logger.Log(b.ctx, level, "relay message dropped",
			"error", err,
			"code", string(domain.ErrorCodeOf(err)),
			"kind", string(domain.ErrorKindOf(err)),
		)
	}
}

func (b *Bridge) dispatch(msg []byte) error {
	in, err := wire.Decode(msg)
	if err != nil {
		return domain.NewDomainError("Bridge.dispatch", domain.ErrMalformedEnvelope, err.Error())
	}
	if in.Command != nil {
		return b.executor.Execute(b.ctx, *in.Command)
	}
	switch in.Envelope.Event {
	case wire.EventConfigUpdate, wire.EventInitialConfig:
		return b.config.Apply(in.Envelope.Data)
	default:
		return domain.NewDomainError("Bridge.dispatch", domain.ErrUnknownEvent, in.Envelope.Event)
	}
}

// relayEvents adapts the Bridge to relay.Handler without exporting the
// callbacks.
type relayEvents struct{ b *Bridge }

func (r relayEvents) OnConnected()         { r.b.onConnected() }
func (r relayEvents) OnMessage(msg []byte) { r.b.onMessage(msg) }

func (r relayEvents) OnStateChange(from, to domain.ConnectionState) {
	r.b.logger.Debug("relay state changed", "from", from.String(), "to", to.String())
	r.b.pushStatus()
}
