package scpi

import "time"

// Transport is the capability set every physical SCPI link implements.
//
// A Transport is constructed disconnected with static configuration and may
// cycle through Connect/Disconnect any number of times. Both lifecycle calls
// are idempotent: Connect while connected and Disconnect while disconnected
// are no-ops. Any I/O fault that corrupts the medium drops the transport to
// the disconnected state immediately, so subsequent calls fail fast with
// [ErrNotConnected] instead of hanging on a dead handle.
//
// Transports perform purely synchronous, blocking I/O and carry no internal
// locking. A single instance must not be shared across concurrent callers
// without external synchronization; interleaving one caller's command with
// another's response read desynchronizes the protocol.
type Transport interface {
	// Connect establishes the medium. It does nothing when already
	// connected and returns a connection error if the medium cannot be
	// opened within the configured timeout.
	Connect() error

	// Disconnect releases the medium. It does nothing when already
	// disconnected and never fails.
	Disconnect() error

	// IsConnected reports whether the transport holds an open medium.
	// It performs no I/O.
	IsConnected() bool

	// Send writes one command or query line. Exactly one line terminator is
	// appended unless text already ends with it. A write fault returns a
	// connection error and drops the transport to disconnected.
	Send(text string) error

	// Receive blocks until a complete terminator-delimited line arrives or
	// the timeout elapses, and returns the line with the terminator and
	// surrounding whitespace stripped.
	//
	// A timeout <= 0 selects the transport's configured default; a positive
	// timeout applies to this call only and never affects later calls.
	Receive(timeout time.Duration) (string, error)

	// SendRaw writes data verbatim, with no terminator handling.
	SendRaw(data []byte) error

	// ReceiveRaw blocks until exactly count bytes arrive or the timeout
	// elapses. It never returns a short read silently: on timeout the
	// returned [TimeoutError] reports how many bytes were obtained.
	// The timeout parameter behaves as in Receive.
	ReceiveRaw(count int, timeout time.Duration) ([]byte, error)
}

// InputFlusher is implemented by transports that can discard unread buffered
// input, typically to recover after a protocol desync. The serial transport
// implements it; callers probe with a type assertion.
type InputFlusher interface {
	// FlushInput discards any unread data in the receive path. It is a
	// no-op on a disconnected transport.
	FlushInput() error
}
