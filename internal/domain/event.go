package domain

import "context"

// GameEvent is one inbound message observed on the game channel: its name and
// the positional values that followed it.
type GameEvent struct {
	ChannelID string
	Name      string
	Args      []any
}

// GameEventHandler is a callback invoked for an observed game event.
type GameEventHandler func(ctx context.Context, event GameEvent)
