package domain

import "context"

// GameChannel is the page's live connection to the hosted game. The bridge
// never owns it: it only observes its traffic and, for commands, invokes its
// existing outbound actions.
type GameChannel interface {
	// ID identifies this channel instance. A replacement channel has a new ID.
	ID() string
	// Emit invokes a named outbound action with positional arguments. It is
	// called on the bridge loop and must not block on I/O.
	Emit(ctx context.Context, name string, args ...any) error
}

// GameSource delivers game channel lifecycle and traffic into the bridge.
// Implementations call these from any goroutine.
type GameSource interface {
	ChannelCreated(ch GameChannel)
	ChannelClosed(id string)
	EventObserved(event GameEvent)
}

// ControlSurface is the operator-facing set of settings and the status
// indicator. Calls arrive on the bridge loop and must not block.
type ControlSurface interface {
	// SetSetting updates the control for key without re-triggering an
	// outbound change.
	SetSetting(key string, value any)
	// SetStatus updates the status indicator.
	SetStatus(status Status)
}
