package usecase

import (
	"context"
	"log/slog"
	"sync"

	"jklm-bridge/internal/domain"
)

// --- Fakes ---

type fakeSender struct {
	state domain.ConnectionState
	sent  []string
}

func (s *fakeSender) Send(msg []byte) bool {
	if s.state != domain.Connected {
		return false
	}
	s.sent = append(s.sent, string(msg))
	return true
}

func (s *fakeSender) State() domain.ConnectionState { return s.state }

type emitCall struct {
	name string
	args []any
}

type fakeChannel struct {
	id string

	mu    sync.Mutex
	calls []emitCall
	err   error
}

func (c *fakeChannel) ID() string { return c.id }

func (c *fakeChannel) Emit(_ context.Context, name string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.calls = append(c.calls, emitCall{name: name, args: args})
	return nil
}

func (c *fakeChannel) emitted() []emitCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitCall(nil), c.calls...)
}

type fakeSurface struct {
	mu       sync.Mutex
	settings map[string]any
	statuses []domain.Status
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{settings: make(map[string]any)}
}

func (s *fakeSurface) SetSetting(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

func (s *fakeSurface) SetStatus(status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *fakeSurface) setting(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key]
}

func (s *fakeSurface) lastStatus() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return domain.Status{}
	}
	return s.statuses[len(s.statuses)-1]
}

// logRecorder is a slog.Handler that keeps every record.
type logRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *logRecorder) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *logRecorder) WithGroup(string) slog.Handler      { return h }

func (h *logRecorder) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func newRecordingLogger() (*slog.Logger, *logRecorder) {
	h := &logRecorder{}
	return slog.New(h), h
}

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }
