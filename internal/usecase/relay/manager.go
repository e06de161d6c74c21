// Package relay owns the single logical connection from the bridge to the
// automation endpoint and keeps it alive.
//
// The Manager is a state machine:
//
//	Disconnected -> Connecting -> Connected
//	Connecting | Connected -> Disconnected   (any failure or close)
//
// Entering Disconnected schedules exactly one reconnect after a fixed delay,
// forever, with no backoff. Every Manager method and every Handler callback
// runs on the owner's loop (see Poster); blocking I/O runs on helper
// goroutines that post their results back.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/oklog/ulid/v2"

	"jklm-bridge/internal/domain"
)

// Default manager settings.
const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultSendBuffer     = 64
)

// Conn is one established relay connection.
type Conn interface {
	// Read blocks until the next message arrives or the connection fails.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one message.
	Write(ctx context.Context, msg []byte) error
	// Close tears the connection down, unblocking Read.
	Close() error
}

// Dialer opens relay connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Handler receives manager notifications on the owner's loop.
type Handler interface {
	// OnConnected runs right after the state becomes Connected, before any
	// other queued work, so sends made here go out first.
	OnConnected()
	// OnMessage delivers one inbound message in arrival order.
	OnMessage(msg []byte)
	// OnStateChange reports every transition.
	OnStateChange(from, to domain.ConnectionState)
}

// Poster schedules fn on the owner's loop. It must not block indefinitely.
type Poster func(fn func())

// Config configures a Manager. Zero fields take defaults.
type Config struct {
	ReconnectDelay time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for reconnect timers.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithPacketLogger sets a logger that records every raw frame at debug level.
func WithPacketLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.packets = l }
}

// session is the per-connection I/O state. Its send queue dies with it, so
// nothing is carried across a disconnect.
type session struct {
	id        string
	conn      Conn
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// close ends the session without waiting on the close handshake, which
// can take seconds against a peer that stopped reading.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		go func() { _ = s.conn.Close() }()
	})
}

// Manager is the relay connection state machine.
type Manager struct {
	dialer  Dialer
	handler Handler
	post    Poster
	cfg     Config
	clock   clock.Clock
	logger  *slog.Logger
	packets *slog.Logger

	// Loop-owned state.
	ctx     context.Context
	state   domain.ConnectionState
	gen     uint64
	session *session
	retry   *clock.Timer
	stopped bool
}

// NewManager creates a manager in the Disconnected state. Call Start on the
// owner's loop to begin connecting.
func NewManager(dialer Dialer, handler Handler, post Poster, cfg Config, logger *slog.Logger, opts ...Option) *Manager {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	m := &Manager{
		dialer:  dialer,
		handler: handler,
		post:    post,
		cfg:     cfg,
		clock:   clock.New(),
		logger:  logger,
		state:   domain.Disconnected,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.packets == nil {
		m.packets = slog.New(slog.DiscardHandler)
	}
	return m
}

// State returns the current connection state.
func (m *Manager) State() domain.ConnectionState { return m.state }

// Start begins the first connection attempt. ctx bounds every future attempt;
// when it is done, dials are abandoned.
func (m *Manager) Start(ctx context.Context) {
	m.ctx = ctx
	m.connect()
}

// Stop closes the connection and cancels any pending reconnect. The manager
// cannot be restarted.
func (m *Manager) Stop() {
	m.stopped = true
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	m.gen++
	if m.session != nil {
		m.session.close()
		m.session = nil
	}
	m.setState(domain.Disconnected)
}

// Send queues msg on the live connection. While not Connected the message is
// dropped and Send returns false; nothing is buffered for later.
func (m *Manager) Send(msg []byte) bool {
	if m.state != domain.Connected || m.session == nil {
		return false
	}
	select {
	case m.session.sendCh <- msg:
		m.packets.Debug("relay send", "conn_id", m.session.id, "frame", string(msg))
		return true
	default:
		m.logger.Warn("relay send buffer full, dropping message", "conn_id", m.session.id)
		return false
	}
}

// connect starts one attempt unless one is in flight or already connected.
func (m *Manager) connect() {
	if m.stopped || m.state != domain.Disconnected {
		return
	}
	m.gen++
	gen := m.gen
	m.setState(domain.Connecting)

	ctx := m.ctx
	go func() {
		conn, err := m.dialer.Dial(ctx)
		m.post(func() { m.dialed(gen, conn, err) })
	}()
}

func (m *Manager) dialed(gen uint64, conn Conn, err error) {
	if gen != m.gen || m.stopped {
		if conn != nil {
			go func() { _ = conn.Close() }()
		}
		return
	}
	if err != nil {
		m.logger.Warn("relay connect failed, retrying",
			"error", err,
			"code", string(domain.ErrorCodeOf(err)),
			"retry_in", m.cfg.ReconnectDelay,
		)
		m.setState(domain.Disconnected)
		m.scheduleReconnect()
		return
	}

	s := &session{
		id:     ulid.Make().String(),
		conn:   conn,
		sendCh: make(chan []byte, m.cfg.SendBuffer),
		done:   make(chan struct{}),
	}
	m.session = s
	m.setState(domain.Connected)
	m.logger.Info("relay connected", "conn_id", s.id)

	go m.readLoop(gen, s)
	go m.writeLoop(gen, s)

	m.handler.OnConnected()
}

// lost handles a read or write failure on the session of generation gen.
func (m *Manager) lost(gen uint64, err error) {
	if gen != m.gen || m.state != domain.Connected {
		return
	}
	id := ""
	if m.session != nil {
		id = m.session.id
		m.session.close()
		m.session = nil
	}
	m.logger.Warn("relay disconnected, retrying",
		"conn_id", id,
		"error", err,
		"retry_in", m.cfg.ReconnectDelay,
	)
	m.setState(domain.Disconnected)
	m.scheduleReconnect()
}

// scheduleReconnect arms the single reconnect timer.
func (m *Manager) scheduleReconnect() {
	if m.stopped || m.retry != nil {
		return
	}
	m.retry = m.clock.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.post(func() {
			m.retry = nil
			m.connect()
		})
	})
}

func (m *Manager) setState(to domain.ConnectionState) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	m.handler.OnStateChange(from, to)
}

func (m *Manager) readLoop(gen uint64, s *session) {
	for {
		msg, err := s.conn.Read(m.ctx)
		if err != nil {
			m.post(func() { m.lost(gen, domain.WrapOp("relay read", err)) })
			return
		}
		m.post(func() {
			if gen != m.gen {
				return
			}
			m.packets.Debug("relay recv", "conn_id", s.id, "frame", string(msg))
			m.handler.OnMessage(msg)
		})
	}
}

func (m *Manager) writeLoop(gen uint64, s *session) {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.sendCh:
			ctx, cancel := context.WithTimeout(m.ctx, m.cfg.WriteTimeout)
			err := s.conn.Write(ctx, msg)
			cancel()
			if err != nil {
				m.post(func() { m.lost(gen, domain.WrapOp("relay write", err)) })
				return
			}
		}
	}
}
