// Package panel implements the operator control surface as a Bubble Tea
// terminal panel.
package panel

import (
	"sync"

	"jklm-bridge/internal/domain"
)

// Surface is the domain.ControlSurface side of the panel. The bridge writes
// into it from its loop without blocking; the panel reads a coalesced
// snapshot whenever Changed fires.
type Surface struct {
	mu     sync.Mutex
	values map[string]any
	status domain.Status

	changed chan struct{}
}

var _ domain.ControlSurface = (*Surface)(nil)

// NewSurface creates a Surface holding the schema defaults.
func NewSurface() *Surface {
	s := &Surface{
		values:  make(map[string]any, len(domain.SettingsSchema)),
		changed: make(chan struct{}, 1),
	}
	for _, spec := range domain.SettingsSchema {
		s.values[spec.Key] = spec.Default
	}
	return s
}

// SetSetting implements domain.ControlSurface.
func (s *Surface) SetSetting(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	s.notify()
}

// SetStatus implements domain.ControlSurface.
func (s *Surface) SetStatus(status domain.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.notify()
}

// record stores a value edited on the panel itself, without a notification.
func (s *Surface) record(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// snapshot returns a copy of the current values and status.
func (s *Surface) snapshot() (map[string]any, domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, s.status
}

// Changed fires at least once after any number of updates.
func (s *Surface) Changed() <-chan struct{} { return s.changed }

func (s *Surface) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
