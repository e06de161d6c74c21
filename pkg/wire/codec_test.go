package wire

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRelayed(t *testing.T) {
	for _, name := range RelayedEvents {
		assert.True(t, IsRelayed(name), name)
	}
	for _, name := range []string{"chat", "setGame", "", "Setup", "configUpdate"} {
		assert.False(t, IsRelayed(name), name)
	}
	assert.True(t, IsRelayed(SnapshotEvent))
}

func TestPayloadCollapsesPositionalValues(t *testing.T) {
	assert.Nil(t, Payload(nil))
	assert.Equal(t, "peer-1", Payload([]any{"peer-1"}))
	assert.Equal(t, []any{"peer-1", "ab", 3}, Payload([]any{"peer-1", "ab", 3}))
}

func TestEncodeSequencePreservesOrder(t *testing.T) {
	out, err := Encode("nextTurn", Payload([]any{"peer-1", "ab", 7}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"nextTurn","data":["peer-1","ab",7]}`, string(out))
}

func TestEncodeNestedAndRawValues(t *testing.T) {
	raw := json.RawMessage(`{"players":[{"peerId":1,"nickname":"ana"}],"milestone":{"name":"seating"}}`)
	out, err := Encode("setup", Payload([]any{raw}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"setup","data":{"players":[{"peerId":1,"nickname":"ana"}],"milestone":{"name":"seating"}}}`, string(out))
}

func TestEncodeNilPayload(t *testing.T) {
	out, err := Encode("bonusAlphabetCompleted", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"bonusAlphabetCompleted","data":null}`, string(out))
}

func TestEncodeRejectsUnserializable(t *testing.T) {
	_, err := Encode("setup", map[string]any{"fn": func() {}})
	assert.ErrorIs(t, err, ErrEncode)

	_, err = Encode("setup", math.Inf(1))
	assert.ErrorIs(t, err, ErrEncode)

	_, err = EncodeRaw("setup", json.RawMessage(`{broken`))
	assert.ErrorIs(t, err, ErrEncode)
}

func TestDecodeCommands(t *testing.T) {
	in, err := Decode([]byte(`{"action":"escribir_palabra","word":"EXAMPLE"}`))
	require.NoError(t, err)
	require.NotNil(t, in.Command)
	assert.Nil(t, in.Envelope)
	assert.Equal(t, ActionSubmitWord, in.Command.Action)
	require.NotNil(t, in.Command.Word)
	assert.Equal(t, "EXAMPLE", *in.Command.Word)
	assert.Nil(t, in.Command.Text)

	in, err = Decode([]byte(`{"action":"unirse_juego"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionJoinRound, in.Command.Action)
}

func TestDecodeEnvelope(t *testing.T) {
	in, err := Decode([]byte(`{"event":"configUpdate","data":{"autojoin":true}}`))
	require.NoError(t, err)
	require.NotNil(t, in.Envelope)
	assert.Equal(t, EventConfigUpdate, in.Envelope.Event)
	assert.JSONEq(t, `{"autojoin":true}`, string(in.Envelope.Data))

	in, err = Decode([]byte(`{"event":"configUpdate"}`))
	require.NoError(t, err)
	assert.Equal(t, "null", string(in.Envelope.Data))
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want error
	}{
		{"empty", "", ErrMalformed},
		{"not json", "hello", ErrMalformed},
		{"array", `["setup"]`, ErrMalformed},
		{"truncated", `{"event":`, ErrMalformed},
		{"wrong type", `{"event":7}`, ErrMalformed},
		{"no kind", `{"data":{}}`, ErrNoKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.msg))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
