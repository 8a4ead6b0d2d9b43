package serial

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/scpi"
)

const (
	// DefaultBaudRate is the default serial line speed.
	DefaultBaudRate = 115200

	// DefaultTimeout is the default deadline for receive and raw receive
	// operations.
	DefaultTimeout = 5 * time.Second

	// DefaultTerminator is the default line terminator.
	DefaultTerminator = "\n"
)

const (
	// readChunkSize bounds a single driver read during line accumulation.
	readChunkSize = 4096

	// maxRawChunkSize bounds a single driver read during raw accumulation.
	maxRawChunkSize = 64 * 1024
)

// Transport is a [scpi.Transport] over a serial port.
//
// The zero value is not usable; create instances with [NewTransport].
// A Transport is not safe for concurrent use.
type Transport struct {
	portName   string
	baudRate   int
	timeout    time.Duration
	terminator string
	logger     logger.Logger

	// port is non-nil iff the transport is connected. Any I/O fault nils
	// it immediately so later calls fail fast.
	port port

	// pending holds bytes read past the last returned terminator.
	pending []byte
}

// Compile-time checks: Transport implements the contract and the flush extra.
var (
	_ scpi.Transport    = (*Transport)(nil)
	_ scpi.InputFlusher = (*Transport)(nil)
)

// NewTransport creates a disconnected serial transport for the port at
// portName (e.g. "/dev/ttyUSB0", "COM3"). The port is opened 8N1 at
// [DefaultBaudRate] unless overridden. opts are functional options applied
// in order.
func NewTransport(portName string, opts ...Option) (*Transport, error) {
	if portName == "" {
		return nil, errors.New("serial: port name must not be empty")
	}

	t := &Transport{
		portName:   portName,
		baudRate:   DefaultBaudRate,
		timeout:    DefaultTimeout,
		terminator: DefaultTerminator,
		logger:     logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// PortName returns the configured port path.
func (t *Transport) PortName() string { return t.portName }

// BaudRate returns the configured line speed.
func (t *Transport) BaudRate() int { return t.baudRate }

// Timeout returns the default I/O timeout.
func (t *Transport) Timeout() time.Duration { return t.timeout }

// Terminator returns the configured line terminator.
func (t *Transport) Terminator() string { return t.terminator }

// Connect opens the serial port. It is idempotent: calling it while
// connected does nothing. An unavailable device or driver is reported as a
// connection error; the failure is environmental and is not retried here.
func (t *Transport) Connect() error {
	if t.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := openPort(t.portName, mode)
	if err != nil {
		return scpi.NewConnectionError("cannot open serial port "+t.portName, err)
	}

	t.port = p
	t.pending = nil
	t.logger.Debug("serial: port opened", "port", t.portName, "baud", t.baudRate)

	return nil
}

// Disconnect closes the serial port. It is idempotent and never fails.
func (t *Transport) Disconnect() error {
	if t.port == nil {
		return nil
	}

	_ = t.port.Close()
	t.port = nil
	t.pending = nil
	t.logger.Debug("serial: port closed", "port", t.portName)

	return nil
}

// IsConnected reports whether the transport holds an open port.
// It performs no I/O.
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Send writes one command or query line, appending exactly one terminator
// unless text already ends with it.
func (t *Transport) Send(text string) error {
	if !strings.HasSuffix(text, t.terminator) {
		text += t.terminator
	}

	return t.write([]byte(text), "serial write failed")
}

// SendRaw writes data verbatim with no terminator handling.
func (t *Transport) SendRaw(data []byte) error {
	return t.write(data, "serial raw write failed")
}

func (t *Transport) write(payload []byte, faultMsg string) error {
	if t.port == nil {
		return scpi.ErrNotConnected
	}

	if _, err := t.port.Write(payload); err != nil {
		t.drop()
		return scpi.NewConnectionError(faultMsg, err)
	}

	return nil
}

// Receive blocks until a complete terminator-delimited line is available or
// the timeout elapses, and returns the line with the terminator and
// surrounding whitespace stripped. A timeout <= 0 selects the transport
// default; a positive timeout applies to this call only.
func (t *Transport) Receive(timeout time.Duration) (string, error) {
	if t.port == nil {
		return "", scpi.ErrNotConnected
	}

	term := []byte(t.terminator)
	deadline := time.Now().Add(t.effectiveTimeout(timeout))

	for {
		if i := bytes.Index(t.pending, term); i >= 0 {
			line := string(t.pending[:i+len(term)])
			t.pending = append([]byte(nil), t.pending[i+len(term):]...)

			return strings.TrimSpace(line), nil
		}

		if err := t.fill(deadline, readChunkSize); err != nil {
			if scpi.IsTimeoutError(err) {
				return "", scpi.NewTimeoutError("no complete line received before timeout", err)
			}
			// A fault read may still have delivered the rest of the line;
			// serve it before surfacing the dead link on the next call.
			if bytes.Contains(t.pending, term) {
				continue
			}

			return "", err
		}
	}
}

// ReceiveRaw blocks until exactly count bytes are collected or the timeout
// elapses. On timeout the returned error reports how many bytes were
// obtained; the partial data is discarded (use [Transport.FlushInput] to
// resynchronize afterwards).
func (t *Transport) ReceiveRaw(count int, timeout time.Duration) ([]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("serial: raw receive count must be positive, got %d", count)
	}
	if t.port == nil {
		return nil, scpi.ErrNotConnected
	}

	deadline := time.Now().Add(t.effectiveTimeout(timeout))

	for len(t.pending) < count {
		need := count - len(t.pending)
		if need > maxRawChunkSize {
			need = maxRawChunkSize
		}

		if err := t.fill(deadline, need); err != nil {
			var te *scpi.TimeoutError
			if errors.As(err, &te) {
				te.Msg = "serial raw receive timed out"
				te.Want = count
				te.Got = len(t.pending)
				t.pending = nil

				return nil, err
			}
			if len(t.pending) >= count {
				break
			}

			return nil, err
		}
	}

	data := append([]byte(nil), t.pending[:count]...)
	t.pending = append([]byte(nil), t.pending[count:]...)

	return data, nil
}

// FlushInput discards unread buffered input, both in the driver receive
// buffer and in the transport's own pending buffer. It is a no-op when
// disconnected.
func (t *Transport) FlushInput() error {
	if t.port == nil {
		return nil
	}

	t.pending = nil
	if err := t.port.ResetInputBuffer(); err != nil {
		t.drop()
		return scpi.NewConnectionError("serial input flush failed", err)
	}

	return nil
}

// fill performs one deadline-bounded driver read of up to max bytes and
// appends the result to the pending buffer. The driver read timeout is
// re-armed with the remaining wall-clock time each call; a read that
// returns no data after the deadline is the timeout signal (the bug.st
// driver reports its read timeout as a zero-length read with a nil error).
func (t *Transport) fill(deadline time.Time, max int) error {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return scpi.NewTimeoutError("read deadline exceeded", nil)
	}

	if err := t.port.SetReadTimeout(remaining); err != nil {
		t.drop()
		return scpi.NewConnectionError("serial read failed", err)
	}

	buf := make([]byte, max)
	n, err := t.port.Read(buf)
	if n > 0 {
		t.pending = append(t.pending, buf[:n]...)
	}
	if err != nil {
		t.drop()
		return scpi.NewConnectionError("serial read failed", err)
	}
	if n == 0 && !time.Now().Before(deadline) {
		return scpi.NewTimeoutError("read deadline exceeded", nil)
	}

	return nil
}

func (t *Transport) effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}

	return t.timeout
}

// drop force-closes the port and marks the transport disconnected after a
// transport-level fault, so subsequent calls fail fast instead of hanging.
func (t *Transport) drop() {
	if t.port != nil {
		_ = t.port.Close()
		t.port = nil
	}
	t.logger.Debug("serial: port dropped after fault", "port", t.portName)
}
