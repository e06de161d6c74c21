package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jklm-bridge/internal/domain"
)

type recordingSource struct {
	mu       sync.Mutex
	channels []domain.GameChannel
	closed   []string
	events   []domain.GameEvent
}

func (s *recordingSource) ChannelCreated(ch domain.GameChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, ch)
}

func (s *recordingSource) ChannelClosed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, id)
}

func (s *recordingSource) EventObserved(e domain.GameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

type evalCall struct {
	execID runtime.ExecutionContextID
	expr   string
}

type fakeEvaluator struct {
	mu       sync.Mutex
	calls    []evalCall
	err      error
	rejected bool
}

func (f *fakeEvaluator) evaluate(execID runtime.ExecutionContextID, expr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, evalCall{execID: execID, expr: expr})
	if f.err != nil {
		return false, f.err
	}
	return !f.rejected, nil
}

func (f *fakeEvaluator) recorded() []evalCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]evalCall(nil), f.calls...)
}

func newTestPage(cfg Config) (*Page, *recordingSource, *fakeEvaluator) {
	src := &recordingSource{}
	eval := &fakeEvaluator{}
	p := newPage(cfg, src, slog.New(slog.DiscardHandler))
	p.eval = eval
	return p, src, eval
}

func bindingEvent(execID runtime.ExecutionContextID, payload string) *runtime.EventBindingCalled {
	return &runtime.EventBindingCalled{Name: bindingName, Payload: payload, ExecutionContextID: execID}
}

func TestPageReportsChannelsAndEvents(t *testing.T) {
	p, src, _ := newTestPage(Config{})
	defer p.Close()

	p.dispatch(bindingEvent(7, `{"kind":"channel","channel":"1"}`))
	p.dispatch(bindingEvent(7, `{"kind":"event","channel":"1","name":"setup","args":[{"milestone":"round"}]}`))
	p.dispatch(bindingEvent(7, `{"kind":"event","channel":"9","name":"setup","args":[]}`))
	p.dispatch(&runtime.EventBindingCalled{Name: "other", Payload: `{}`})
	p.dispatch(bindingEvent(7, `garbage`))

	require.Len(t, src.channels, 1)
	require.Len(t, src.events, 1)
	assert.Equal(t, src.channels[0].ID(), src.events[0].ChannelID)
	assert.Equal(t, "setup", src.events[0].Name)
	assert.Equal(t, []any{map[string]any{"milestone": "round"}}, src.events[0].Args)
}

func TestPageDropsChannelsWithContext(t *testing.T) {
	p, src, _ := newTestPage(Config{})
	defer p.Close()

	p.dispatch(bindingEvent(1, `{"kind":"channel","channel":"1"}`))
	p.dispatch(bindingEvent(2, `{"kind":"channel","channel":"1"}`))
	require.Len(t, src.channels, 2)
	assert.NotEqual(t, src.channels[0].ID(), src.channels[1].ID())

	p.dispatch(&runtime.EventExecutionContextDestroyed{ExecutionContextID: 1})
	assert.Equal(t, []string{src.channels[0].ID()}, src.closed)

	err := src.channels[0].Emit(context.Background(), "joinRound")
	assert.ErrorIs(t, err, domain.ErrEmitFailed)

	p.dispatch(&runtime.EventExecutionContextsCleared{})
	assert.Equal(t, []string{src.channels[0].ID(), src.channels[1].ID()}, src.closed)
}

func TestChannelEmitsInOrder(t *testing.T) {
	p, src, eval := newTestPage(Config{})
	defer p.Close()

	p.dispatch(bindingEvent(4, `{"kind":"channel","channel":"2"}`))
	ch := src.channels[0]

	require.NoError(t, ch.Emit(context.Background(), "setWord", "abe", false))
	require.NoError(t, ch.Emit(context.Background(), "setWord", "abeja", true))
	require.NoError(t, ch.Emit(context.Background(), "joinRound"))

	require.Eventually(t, func() bool { return len(eval.recorded()) == 3 }, time.Second, time.Millisecond)
	calls := eval.recorded()
	assert.Equal(t, runtime.ExecutionContextID(4), calls[0].execID)
	assert.Equal(t, `window.__relayHook.emit("2","setWord",["abe",false])`, calls[0].expr)
	assert.Equal(t, `window.__relayHook.emit("2","setWord",["abeja",true])`, calls[1].expr)
	assert.Equal(t, `window.__relayHook.emit("2","joinRound",[])`, calls[2].expr)
}

func TestChannelBreakerFailsFast(t *testing.T) {
	p, src, eval := newTestPage(Config{BreakerMaxFailures: 2, BreakerTimeout: time.Minute})
	defer p.Close()
	eval.err = errors.New("target closed")

	p.dispatch(bindingEvent(1, `{"kind":"channel","channel":"1"}`))
	ch := src.channels[0]

	require.NoError(t, ch.Emit(context.Background(), "joinRound"))
	require.NoError(t, ch.Emit(context.Background(), "joinRound"))
	require.Eventually(t, func() bool {
		return p.breaker.State() == gobreaker.StateOpen
	}, time.Second, time.Millisecond)

	err := ch.Emit(context.Background(), "joinRound")
	assert.ErrorIs(t, err, domain.ErrBrowserNotConnected)
	assert.Len(t, eval.recorded(), 2)
}
