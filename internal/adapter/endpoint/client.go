// Package endpoint dials the local automation endpoint over WebSocket.
package endpoint

import (
	"context"
	"fmt"
	"time"

	"nhooyr.io/websocket"

	"jklm-bridge/internal/domain"
	"jklm-bridge/internal/usecase/relay"
)

// DefaultReadLimit bounds a single inbound message.
const DefaultReadLimit = 1 << 20

// Config configures a Dialer.
type Config struct {
	URL         string
	DialTimeout time.Duration
	ReadLimit   int64
}

// Dialer opens WebSocket connections to the endpoint. It implements
// relay.Dialer.
type Dialer struct {
	cfg Config
}

var _ relay.Dialer = (*Dialer)(nil)

// NewDialer returns a Dialer for cfg.URL.
func NewDialer(cfg Config) *Dialer {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = DefaultReadLimit
	}
	return &Dialer{cfg: cfg}
}

// Dial performs the WebSocket handshake.
func (d *Dialer) Dial(ctx context.Context) (relay.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, d.cfg.DialTimeout)
	defer cancel()

	ws, _, err := websocket.Dial(dctx, d.cfg.URL, nil)
	if err != nil {
		return nil, domain.NewDomainError("endpoint.Dial", domain.ErrDialFailed, fmt.Sprintf("%s: %v", d.cfg.URL, err))
	}
	ws.SetReadLimit(d.cfg.ReadLimit)
	return &Conn{ws: ws}, nil
}

// Conn is one endpoint connection. Every message is a text frame carrying one
// JSON object.
type Conn struct {
	ws *websocket.Conn
}

// Read returns the next message payload.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) != -1 {
			return nil, domain.NewDomainError("endpoint.Read", domain.ErrRelayClosed, err.Error())
		}
		return nil, domain.WrapOp("endpoint.Read", err)
	}
	return data, nil
}

// Write sends msg as a text frame.
func (c *Conn) Write(ctx context.Context, msg []byte) error {
	if err := c.ws.Write(ctx, websocket.MessageText, msg); err != nil {
		return domain.WrapOp("endpoint.Write", err)
	}
	return nil
}

// Close sends a normal closure.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
