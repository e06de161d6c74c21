package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Codec errors.
var (
	ErrEncode    = errors.New("wire: payload not serializable")
	ErrMalformed = errors.New("wire: malformed message")
	ErrNoKind    = errors.New("wire: message has neither action nor event")
)

// Payload collapses the positional values of a game event into the value
// placed in an envelope's data field: nil for none, the value itself for one,
// the ordered sequence for more than one.
func Payload(args []any) any {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	default:
		return args
	}
}

// EncodeData serializes a payload into the raw form stored in Envelope.Data.
func EncodeData(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

// Encode builds the serialized envelope for event carrying payload.
func Encode(event string, payload any) ([]byte, error) {
	data, err := EncodeData(payload)
	if err != nil {
		return nil, err
	}
	return EncodeRaw(event, data)
}

// EncodeRaw builds the serialized envelope around already-encoded data.
func EncodeRaw(event string, data json.RawMessage) ([]byte, error) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	out, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// inboundFrame mirrors every field an inbound message may carry.
type inboundFrame struct {
	Action *Action          `json:"action"`
	Word   *string          `json:"word"`
	Text   *string          `json:"text"`
	Event  *string          `json:"event"`
	Data   *json.RawMessage `json:"data"`
}

// Decode parses one inbound relay message. A message carrying an action field
// is a command; otherwise it must carry an event field.
func Decode(msg []byte) (Inbound, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || msg[0] != '{' {
		return Inbound{}, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	var f inboundFrame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if f.Action != nil {
		return Inbound{Command: &Command{Action: *f.Action, Word: f.Word, Text: f.Text}}, nil
	}
	if f.Event != nil {
		env := &Envelope{Event: *f.Event, Data: json.RawMessage("null")}
		if f.Data != nil {
			env.Data = *f.Data
		}
		return Inbound{Envelope: env}, nil
	}
	return Inbound{}, ErrNoKind
}
