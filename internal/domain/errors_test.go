package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Executor.Execute", ErrNoGameChannel, "escribir_palabra")
	want := "Executor.Execute: escribir_palabra: no live game channel"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Relay.Read", ErrRelayClosed, "")
	want := "Relay.Read: relay connection closed"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Filter.Handle", ErrEncodePayload, "setup")
	if !errors.Is(err, ErrEncodePayload) {
		t.Error("errors.Is should match ErrEncodePayload")
	}
}

func TestDomainErrorAs(t *testing.T) {
	err := WrapOp("bridge", NewDomainError("Settings.Apply", ErrUnknownSetting, "volume"))
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As should match *DomainError")
	}
	if de.Op != "Settings.Apply" {
		t.Errorf("Op = %q, want %q", de.Op, "Settings.Apply")
	}
}

func TestWrapOpNil(t *testing.T) {
	assert.NoError(t, WrapOp("op", nil))
}

func TestErrorCodeOf(t *testing.T) {
	assert.Equal(t, CodeNoGameChannel, ErrorCodeOf(ErrNoGameChannel))
	assert.Equal(t, CodeMalformedEnvelope, ErrorCodeOf(NewDomainError("op", ErrMalformedEnvelope, "")))
	assert.Equal(t, CodeDialFailed, ErrorCodeOf(fmt.Errorf("dial ws://x: %w", ErrDialFailed)))
	assert.Equal(t, CodeUnknown, ErrorCodeOf(fmt.Errorf("some random error")))
	assert.Equal(t, CodeUnknown, ErrorCodeOf(nil))
}

func TestErrorKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{ErrRelayClosed, KindTransport},
		{ErrUnknownCommand, KindProtocol},
		{fmt.Errorf("wrap: %w", ErrMissingField), KindProtocol},
		{ErrNoGameChannel, KindDependency},
		{ErrEncodePayload, KindEncoding},
		{ErrInvalidSetting, KindSettings},
		{errors.New("other"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKindOf(tt.err), tt.err.Error())
	}
}

func TestDomainErrorCode(t *testing.T) {
	err := NewDomainError("Executor.Execute", ErrEmitFailed, "setWord")
	assert.Equal(t, CodeEmitFailed, err.Code())

	custom := NewDomainError("Op", fmt.Errorf("custom"), "detail")
	assert.Equal(t, CodeUnknown, custom.Code())
}
