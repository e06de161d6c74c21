package usecase

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jklm-bridge/internal/domain"
)

func TestFilterRelaysAllowListInOrder(t *testing.T) {
	sender := &fakeSender{state: domain.Connected}
	f := NewFilter(sender, &StateCache{}, discardLogger())
	ctx := context.Background()

	f.Handle(ctx, domain.GameEvent{Name: "nextTurn", Args: []any{"p1", "ab"}})
	f.Handle(ctx, domain.GameEvent{Name: "chat", Args: []any{"hi"}})
	f.Handle(ctx, domain.GameEvent{Name: "correctWord", Args: []any{map[string]any{"playerPeerId": 3}}})
	f.Handle(ctx, domain.GameEvent{Name: "livesLost"})

	assert.Equal(t, []string{
		`{"event":"nextTurn","data":["p1","ab"]}`,
		`{"event":"correctWord","data":{"playerPeerId":3}}`,
		`{"event":"livesLost","data":null}`,
	}, sender.sent)
}

func TestFilterCachesSnapshotWhileDisconnected(t *testing.T) {
	sender := &fakeSender{state: domain.Disconnected}
	cache := &StateCache{}
	f := NewFilter(sender, cache, discardLogger())

	f.Handle(context.Background(), domain.GameEvent{Name: "setup", Args: []any{map[string]any{"round": 1}}})
	f.Handle(context.Background(), domain.GameEvent{Name: "setup", Args: []any{map[string]any{"round": 2}}, ChannelID: "c"})

	data, ok := cache.Load()
	require.True(t, ok)
	assert.JSONEq(t, `{"round":2}`, string(data))
	assert.Empty(t, sender.sent)
}

func TestFilterCollapsesSnapshotSameWhenConnected(t *testing.T) {
	sender := &fakeSender{state: domain.Connected}
	cache := &StateCache{}
	f := NewFilter(sender, cache, discardLogger())

	f.Handle(context.Background(), domain.GameEvent{Name: "setup", Args: []any{"a", 1}})

	data, ok := cache.Load()
	require.True(t, ok)
	assert.JSONEq(t, `["a",1]`, string(data))
	assert.Equal(t, []string{`{"event":"setup","data":["a",1]}`}, sender.sent)
}

func TestFilterDropsUnserializable(t *testing.T) {
	sender := &fakeSender{state: domain.Connected}
	cache := &StateCache{}
	log, rec := newRecordingLogger()
	f := NewFilter(sender, cache, log)

	f.Handle(context.Background(), domain.GameEvent{Name: "setup", Args: []any{math.Inf(1)}})

	assert.Empty(t, sender.sent)
	_, ok := cache.Load()
	assert.False(t, ok, "unserializable snapshot must not be cached")
	assert.Equal(t, 1, rec.count(slog.LevelWarn))
}
