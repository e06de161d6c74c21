// Package browser attaches to the browser tab hosting the game through the
// Chrome DevTools Protocol, installs the socket hook, and exposes every hooked
// game socket as a domain.GameChannel.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sony/gobreaker/v2"

	"jklm-bridge/internal/domain"
)

// Default browser settings.
const (
	defaultTimeout            = 30 * time.Second
	defaultBreakerMaxFailures = 5
	defaultBreakerTimeout     = 30 * time.Second
)

// Config configures a Page.
type Config struct {
	// GameURL is opened after the hook is installed. Empty reloads the
	// current page instead.
	GameURL string
	// RemoteURL is the CDP WebSocket endpoint of a running Chrome. If empty,
	// a local Chrome instance is launched.
	RemoteURL string
	// Headless controls whether a locally launched Chrome runs headless.
	Headless bool
	// NoSandbox launches Chrome without its sandbox, which it refuses to
	// run as root without.
	NoSandbox bool
	// Timeout bounds startup and every emitted call.
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

type channelKey struct {
	execID  runtime.ExecutionContextID
	localID string
}

// Page is one attached browser tab.
type Page struct {
	cfg     Config
	source  domain.GameSource
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[bool]
	eval    evaluator

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	tabCtx        context.Context
	tabCancel     context.CancelFunc

	mu       sync.Mutex
	channels map[channelKey]*channel
}

func newPage(cfg Config, source domain.GameSource, logger *slog.Logger) *Page {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = defaultBreakerMaxFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}
	p := &Page{
		cfg:      cfg,
		source:   source,
		logger:   logger,
		channels: make(map[channelKey]*channel),
	}
	maxFailures := cfg.BreakerMaxFailures
	p.breaker = gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "browser",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	p.eval = p
	return p
}

// Open launches or connects to Chrome, installs the hook and loads the game.
// Game sockets are reported to source from then on.
func Open(ctx context.Context, cfg Config, source domain.GameSource, logger *slog.Logger) (*Page, error) {
	p := newPage(cfg, source, logger)

	var allocCtx context.Context
	if cfg.RemoteURL != "" {
		allocCtx, p.allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
		logger.Info("chromedp connecting to remote browser", "url", cfg.RemoteURL)
	} else {
		opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
		copy(opts, chromedp.DefaultExecAllocatorOptions[:])
		opts = append(opts,
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1280, 800),
		)
		if cfg.NoSandbox {
			opts = append(opts, chromedp.NoSandbox)
		}
		allocCtx, p.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
		logger.Info("chromedp launching local browser", "headless", cfg.Headless)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	p.browserCancel = browserCancel
	p.tabCtx, p.tabCancel = chromedp.NewContext(browserCtx)

	chromedp.ListenTarget(p.tabCtx, p.dispatch)

	load := chromedp.Reload()
	if cfg.GameURL != "" {
		load = chromedp.Navigate(cfg.GameURL)
	}

	// The first Run binds the CDP session to tabCtx; it must not carry a
	// deadline of its own.
	startDone := make(chan error, 1)
	go func() {
		startDone <- chromedp.Run(p.tabCtx,
			runtime.Enable(),
			runtime.AddBinding(bindingName),
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, err := page.AddScriptToEvaluateOnNewDocument(hookJS).Do(ctx)
				return err
			}),
			load,
		)
	}()
	select {
	case err := <-startDone:
		if err != nil {
			p.Close()
			return nil, domain.NewDomainError("browser.Open", domain.ErrBrowserNotConnected, err.Error())
		}
	case <-time.After(cfg.Timeout):
		p.Close()
		return nil, domain.NewDomainError("browser.Open", domain.ErrBrowserNotConnected, fmt.Sprintf("timed out after %v", cfg.Timeout))
	}

	logger.Info("game page hooked", "url", cfg.GameURL)
	return p, nil
}

// Done is closed when the tab or browser goes away.
func (p *Page) Done() <-chan struct{} { return p.tabCtx.Done() }

// Close detaches from the tab. A launched browser is shut down.
func (p *Page) Close() {
	p.mu.Lock()
	for key, ch := range p.channels {
		ch.close()
		delete(p.channels, key)
	}
	p.mu.Unlock()

	if p.tabCancel != nil {
		p.tabCancel()
	}
	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
}

// dispatch handles CDP events. It runs on chromedp's event loop and only
// hands work to the source, never calling back into the browser.
func (p *Page) dispatch(ev any) {
	switch e := ev.(type) {
	case *runtime.EventBindingCalled:
		if e.Name != bindingName {
			return
		}
		p.handleBinding(e.ExecutionContextID, e.Payload)
	case *runtime.EventExecutionContextDestroyed:
		p.dropContext(e.ExecutionContextID)
	case *runtime.EventExecutionContextsCleared:
		p.dropAll()
	}
}

func (p *Page) handleBinding(execID runtime.ExecutionContextID, payload string) {
	msg, err := parseBinding(payload)
	if err != nil {
		p.logger.Warn("ignoring hook report", "error", err)
		return
	}
	key := channelKey{execID: execID, localID: msg.Channel}

	switch msg.Kind {
	case kindChannel:
		ch := newChannel(msg.Channel, execID, p.eval, p.breaker, p.logger)
		p.mu.Lock()
		if old, ok := p.channels[key]; ok {
			old.close()
		}
		p.channels[key] = ch
		p.mu.Unlock()
		p.source.ChannelCreated(ch)
	case kindEvent:
		p.mu.Lock()
		ch, ok := p.channels[key]
		p.mu.Unlock()
		if !ok {
			return
		}
		p.source.EventObserved(domain.GameEvent{ChannelID: ch.ID(), Name: msg.Name, Args: msg.Args})
	}
}

func (p *Page) dropContext(execID runtime.ExecutionContextID) {
	p.mu.Lock()
	var closed []*channel
	for key, ch := range p.channels {
		if key.execID == execID {
			closed = append(closed, ch)
			delete(p.channels, key)
		}
	}
	p.mu.Unlock()
	for _, ch := range closed {
		ch.close()
		p.source.ChannelClosed(ch.ID())
	}
}

func (p *Page) dropAll() {
	p.mu.Lock()
	closed := make([]*channel, 0, len(p.channels))
	for key, ch := range p.channels {
		closed = append(closed, ch)
		delete(p.channels, key)
	}
	p.mu.Unlock()
	for _, ch := range closed {
		ch.close()
		p.source.ChannelClosed(ch.ID())
	}
}

// evaluate implements evaluator against the live tab.
func (p *Page) evaluate(execID runtime.ExecutionContextID, expr string) (bool, error) {
	tctx, cancel := context.WithTimeout(p.tabCtx, p.cfg.Timeout)
	defer cancel()

	var accepted bool
	err := chromedp.Run(tctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exc, err := runtime.Evaluate(expr).
			WithContextID(execID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("page exception: %s", exc.Text)
		}
		accepted = res != nil && string(res.Value) == "true"
		return nil
	}))
	return accepted, err
}
