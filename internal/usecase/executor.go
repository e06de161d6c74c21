package usecase

import (
	"context"

	"jklm-bridge/internal/domain"
	"jklm-bridge/internal/infra/tracer"
	"jklm-bridge/pkg/wire"
)

// ChannelProvider yields the live game channel, or nil.
type ChannelProvider interface {
	Current() domain.GameChannel
}

// Executor replays endpoint commands into the game session. Commands are
// fire-and-forget: the endpoint never receives a reply or an error.
type Executor struct {
	channels ChannelProvider
}

// NewExecutor creates an Executor resolving the channel through channels on
// every command.
func NewExecutor(channels ChannelProvider) *Executor {
	return &Executor{channels: channels}
}

// gameCall is the outbound game action a command maps onto.
type gameCall struct {
	name string
	args []any
}

// resolve maps a command onto its game call.
func resolve(cmd wire.Command) (gameCall, error) {
	switch cmd.Action {
	case wire.ActionSubmitWord:
		if cmd.Word == nil {
			return gameCall{}, domain.NewDomainError("Executor.resolve", domain.ErrMissingField, "word")
		}
		return gameCall{name: wire.GameSetWord, args: []any{*cmd.Word, true}}, nil
	case wire.ActionTypeText:
		if cmd.Text == nil {
			return gameCall{}, domain.NewDomainError("Executor.resolve", domain.ErrMissingField, "text")
		}
		return gameCall{name: wire.GameSetWord, args: []any{*cmd.Text, false}}, nil
	case wire.ActionJoinRound:
		return gameCall{name: wire.GameJoinRound}, nil
	default:
		return gameCall{}, domain.NewDomainError("Executor.resolve", domain.ErrUnknownCommand, string(cmd.Action))
	}
}

// Execute issues the game call for cmd on the current channel.
func (e *Executor) Execute(ctx context.Context, cmd wire.Command) error {
	call, err := resolve(cmd)
	if err != nil {
		return err
	}

	ch := e.channels.Current()
	if ch == nil {
		return domain.NewDomainError("Executor.Execute", domain.ErrNoGameChannel, string(cmd.Action))
	}

	ctx, span := tracer.StartSpan(ctx, "bridge.command")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("command.action", string(cmd.Action)),
		tracer.StringAttr("game.call", call.name),
		tracer.StringAttr("game.channel_id", ch.ID()),
	)

	if err := ch.Emit(ctx, call.name, call.args...); err != nil {
		tracer.RecordError(span, err)
		return domain.WrapOp("Executor.Execute", err)
	}
	tracer.SetOK(span)
	return nil
}
