package scpi

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by transport I/O operations invoked while the
// transport is disconnected. It classifies as a connection error.
var ErrNotConnected = &ConnectionError{Msg: "not connected"}

// ConnectionError indicates that the link could not be established, was
// lost, or that a send/receive failed at the transport level. The transport
// that produced it has already dropped to the disconnected state.
type ConnectionError struct {
	// Msg describes the failure.
	Msg string
	// Cause is the underlying transport-level error, when available.
	Cause error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scpi: %s: %v", e.Msg, e.Cause)
	}

	return "scpi: " + e.Msg
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// NewConnectionError creates a ConnectionError with an optional cause.
func NewConnectionError(msg string, cause error) *ConnectionError {
	return &ConnectionError{Msg: msg, Cause: cause}
}

// TimeoutError indicates that a bounded wait (connect, line receive, raw
// receive) exceeded its deadline without completing.
type TimeoutError struct {
	// Msg describes the operation that timed out.
	Msg string
	// Want and Got carry the requested and obtained byte counts for raw
	// receives; both are zero for line receives.
	Want int
	Got  int
	// Cause is the underlying deadline error, when available.
	Cause error
}

func (e *TimeoutError) Error() string {
	if e.Want > 0 {
		return fmt.Sprintf("scpi: %s: expected %d bytes, got %d", e.Msg, e.Want, e.Got)
	}

	return "scpi: " + e.Msg
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// NewTimeoutError creates a TimeoutError with an optional cause.
func NewTimeoutError(msg string, cause error) *TimeoutError {
	return &TimeoutError{Msg: msg, Cause: cause}
}

// ProtocolError indicates that the instrument responded, but the response
// content does not match the expected shape. It names both the offending
// command and the literal response text so callers never have to re-derive
// what went wrong from a generic parse failure.
type ProtocolError struct {
	// Command is the command or query that elicited the response.
	Command string
	// Response is the literal response text received.
	Response string
	// Expected names the shape the response failed to match, e.g. "float".
	Expected string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("scpi: expected %s, got %q for %q", e.Expected, e.Response, e.Command)
}

// NewProtocolError creates a ProtocolError for a malformed response.
func NewProtocolError(command, response, expected string) *ProtocolError {
	return &ProtocolError{Command: command, Response: response, Expected: expected}
}

// IsConnectionError reports whether err is or wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsTimeoutError reports whether err is or wraps a TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsProtocolError reports whether err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
