package domain

// ConnectionState is the state of the relay connection to the automation
// endpoint.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Phase is the coarse bridge phase shown on the status indicator.
type Phase string

const (
	PhaseDisconnected Phase = "Disconnected"
	PhaseConnecting   Phase = "Connecting"
	PhaseCaptured     Phase = "Captured"
	PhaseConnected    Phase = "Connected"
)

// Status is a point-in-time view of the bridge for the status indicator.
type Status struct {
	Relay     ConnectionState
	ChannelID string // empty when no game channel is known
	Snapshot  bool   // a snapshot is cached for replay
}

// Captured reports whether a game channel is currently known.
func (s Status) Captured() bool { return s.ChannelID != "" }

// Phase collapses the status into the indicator phase. A connected relay wins
// over a captured channel; a captured channel wins over a pending or failed
// relay.
func (s Status) Phase() Phase {
	switch {
	case s.Relay == Connected:
		return PhaseConnected
	case s.Captured():
		return PhaseCaptured
	case s.Relay == Connecting:
		return PhaseConnecting
	default:
		return PhaseDisconnected
	}
}
