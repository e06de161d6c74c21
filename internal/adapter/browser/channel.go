package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/oklog/ulid/v2"
	"github.com/sony/gobreaker/v2"

	"jklm-bridge/internal/domain"
)

const defaultEmitQueue = 32

// evaluator runs a script in one execution context and reports whether the
// hook accepted the call.
type evaluator interface {
	evaluate(execID runtime.ExecutionContextID, expr string) (bool, error)
}

type emitRequest struct {
	name string
	args []any
}

// channel is one game socket in the page. Emit never blocks on the browser:
// calls are queued and a worker evaluates them in order.
type channel struct {
	id      string
	localID string
	execID  runtime.ExecutionContextID

	eval    evaluator
	breaker *gobreaker.CircuitBreaker[bool]
	logger  *slog.Logger

	queue     chan emitRequest
	done      chan struct{}
	closeOnce sync.Once
}

var _ domain.GameChannel = (*channel)(nil)

func newChannel(localID string, execID runtime.ExecutionContextID, eval evaluator, breaker *gobreaker.CircuitBreaker[bool], logger *slog.Logger) *channel {
	ch := &channel{
		id:      ulid.Make().String(),
		localID: localID,
		execID:  execID,
		eval:    eval,
		breaker: breaker,
		logger:  logger,
		queue:   make(chan emitRequest, defaultEmitQueue),
		done:    make(chan struct{}),
	}
	go ch.run()
	return ch
}

// ID implements domain.GameChannel.
func (c *channel) ID() string { return c.id }

// Emit implements domain.GameChannel. It fails fast when the channel is gone,
// its queue is full, or the browser breaker is open.
func (c *channel) Emit(_ context.Context, name string, args ...any) error {
	select {
	case <-c.done:
		return domain.NewDomainError("browser.Emit", domain.ErrEmitFailed, "channel closed")
	default:
	}
	if c.breaker.State() == gobreaker.StateOpen {
		return domain.NewDomainError("browser.Emit", domain.ErrBrowserNotConnected, gobreaker.ErrOpenState.Error())
	}
	select {
	case c.queue <- emitRequest{name: name, args: args}:
		return nil
	default:
		return domain.NewDomainError("browser.Emit", domain.ErrEmitFailed, "emit queue full")
	}
}

func (c *channel) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *channel) run() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.queue:
			if err := c.emit(req); err != nil {
				c.logger.Error("game emit failed",
					"channel_id", c.id,
					"call", req.name,
					"error", err,
					"code", string(domain.ErrorCodeOf(err)),
				)
			}
		}
	}
}

func (c *channel) emit(req emitRequest) error {
	expr, err := emitExpression(c.localID, req.name, req.args)
	if err != nil {
		return domain.NewDomainError("browser.emit", domain.ErrEncodePayload, err.Error())
	}

	accepted, err := c.breaker.Execute(func() (bool, error) {
		return c.eval.evaluate(c.execID, expr)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.NewDomainError("browser.emit", domain.ErrBrowserNotConnected, err.Error())
		}
		return domain.NewDomainError("browser.emit", domain.ErrEmitFailed, err.Error())
	}
	if !accepted {
		return domain.NewDomainError("browser.emit", domain.ErrEmitFailed, fmt.Sprintf("socket %s no longer in page", c.localID))
	}
	return nil
}
