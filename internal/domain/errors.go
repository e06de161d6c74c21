package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bridge. Each one is local and terminal for the
// single message or event that produced it.
var (
	// Transport errors: handled by the reconnect state machine.
	ErrRelayClosed = fmt.Errorf("relay connection closed")
	ErrDialFailed  = fmt.Errorf("relay dial failed")

	// Protocol errors: the offending message is dropped.
	ErrMalformedEnvelope = fmt.Errorf("malformed envelope")
	ErrUnknownCommand    = fmt.Errorf("unknown command")
	ErrUnknownEvent      = fmt.Errorf("unknown inbound event")
	ErrMissingField      = fmt.Errorf("required field missing")

	// Missing-dependency errors: the command is dropped, never queued.
	ErrNoGameChannel = fmt.Errorf("no live game channel")

	// Encoding errors: the game event is dropped at the filter.
	ErrEncodePayload = fmt.Errorf("payload not serializable")

	// Settings errors.
	ErrUnknownSetting = fmt.Errorf("unknown setting")
	ErrInvalidSetting = fmt.Errorf("invalid setting value")

	// Browser hook errors.
	ErrBrowserNotConnected = fmt.Errorf("browser not connected")
	ErrEmitFailed          = fmt.Errorf("game channel emit failed")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Executor.Execute")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorKind is the error taxonomy class an error belongs to.
type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"
	KindProtocol   ErrorKind = "protocol"
	KindDependency ErrorKind = "dependency"
	KindEncoding   ErrorKind = "encoding"
	KindSettings   ErrorKind = "settings"
	KindUnknown    ErrorKind = "unknown"
)

// ErrorCode is a machine-parseable error category used as a log attribute.
type ErrorCode string

const (
	CodeUnknown           ErrorCode = "UNKNOWN"
	CodeRelayClosed       ErrorCode = "RELAY_CLOSED"
	CodeDialFailed        ErrorCode = "DIAL_FAILED"
	CodeMalformedEnvelope ErrorCode = "MALFORMED_ENVELOPE"
	CodeUnknownCommand    ErrorCode = "UNKNOWN_COMMAND"
	CodeUnknownEvent      ErrorCode = "UNKNOWN_EVENT"
	CodeMissingField      ErrorCode = "MISSING_FIELD"
	CodeNoGameChannel     ErrorCode = "NO_GAME_CHANNEL"
	CodeEncodePayload     ErrorCode = "ENCODE_PAYLOAD"
	CodeUnknownSetting    ErrorCode = "UNKNOWN_SETTING"
	CodeInvalidSetting    ErrorCode = "INVALID_SETTING"
	CodeBrowserNotConn    ErrorCode = "BROWSER_NOT_CONNECTED"
	CodeEmitFailed        ErrorCode = "EMIT_FAILED"
)

type errorClass struct {
	code ErrorCode
	kind ErrorKind
}

// errorCodeMap maps sentinel errors to their codes and taxonomy class.
var errorCodeMap = map[error]errorClass{
	ErrRelayClosed:         {CodeRelayClosed, KindTransport},
	ErrDialFailed:          {CodeDialFailed, KindTransport},
	ErrMalformedEnvelope:   {CodeMalformedEnvelope, KindProtocol},
	ErrUnknownCommand:      {CodeUnknownCommand, KindProtocol},
	ErrUnknownEvent:        {CodeUnknownEvent, KindProtocol},
	ErrMissingField:        {CodeMissingField, KindProtocol},
	ErrNoGameChannel:       {CodeNoGameChannel, KindDependency},
	ErrEmitFailed:          {CodeEmitFailed, KindDependency},
	ErrBrowserNotConnected: {CodeBrowserNotConn, KindDependency},
	ErrEncodePayload:       {CodeEncodePayload, KindEncoding},
	ErrUnknownSetting:      {CodeUnknownSetting, KindSettings},
	ErrInvalidSetting:      {CodeInvalidSetting, KindSettings},
}

func classify(err error) (errorClass, bool) {
	if err == nil {
		return errorClass{}, false
	}
	if c, ok := errorCodeMap[err]; ok {
		return c, true
	}
	var de *DomainError
	if errors.As(err, &de) {
		if c, ok := errorCodeMap[de.Err]; ok {
			return c, true
		}
	}
	for sentinel, c := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return c, true
		}
	}
	return errorClass{}, false
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if c, ok := classify(err); ok {
		return c.code
	}
	return CodeUnknown
}

// ErrorKindOf returns the taxonomy class of err.
func ErrorKindOf(err error) ErrorKind {
	if c, ok := classify(err); ok {
		return c.kind
	}
	return KindUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
func (e *DomainError) Code() ErrorCode {
	return ErrorCodeOf(e.Err)
}
