package tcp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/scpi"
)

const (
	// DefaultPort is the conventional LXI raw-socket port used when the
	// configured port is zero.
	DefaultPort = 5555

	// DefaultTimeout is the default deadline for send, receive and raw
	// receive operations.
	DefaultTimeout = 5 * time.Second

	// DefaultConnectTimeout is the default deadline for establishing the
	// TCP connection.
	DefaultConnectTimeout = 5 * time.Second
)

// terminator is the fixed line terminator for LXI raw-socket framing.
const terminator = '\n'

const (
	// readChunkSize bounds a single socket read during line accumulation.
	readChunkSize = 4096

	// maxRawChunkSize bounds a single socket read during raw accumulation,
	// to avoid unbounded single reads for large waveform blocks.
	maxRawChunkSize = 64 * 1024
)

// Transport is a [scpi.Transport] over a TCP stream socket.
//
// The zero value is not usable; create instances with [NewTransport].
// A Transport is not safe for concurrent use.
type Transport struct {
	host           string
	port           int
	timeout        time.Duration
	connectTimeout time.Duration
	logger         logger.Logger

	// conn is non-nil iff the transport is connected. Any I/O fault nils
	// it immediately so later calls fail fast.
	conn net.Conn

	// pending holds bytes read past the last returned terminator.
	pending []byte
}

// Compile-time check: Transport implements scpi.Transport.
var _ scpi.Transport = (*Transport)(nil)

// NewTransport creates a disconnected TCP transport for the instrument at
// host:port. A port of zero selects [DefaultPort] (the LXI raw-socket
// convention). opts are functional options applied in order.
func NewTransport(host string, port int, opts ...Option) (*Transport, error) {
	if host == "" {
		return nil, errors.New("tcp: host must not be empty")
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("tcp: port %d out of range [0, 65535]", port)
	}
	if port == 0 {
		port = DefaultPort
	}

	t := &Transport{
		host:           host,
		port:           port,
		timeout:        DefaultTimeout,
		connectTimeout: DefaultConnectTimeout,
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Host returns the configured instrument host.
func (t *Transport) Host() string { return t.host }

// Port returns the configured TCP port.
func (t *Transport) Port() int { return t.port }

// Addr returns "host:port".
func (t *Transport) Addr() string { return net.JoinHostPort(t.host, fmt.Sprint(t.port)) }

// Timeout returns the default I/O timeout.
func (t *Transport) Timeout() time.Duration { return t.timeout }

// ConnectTimeout returns the connect deadline.
func (t *Transport) ConnectTimeout() time.Duration { return t.connectTimeout }

// Connect opens the TCP connection. It is idempotent: calling it while
// connected does nothing. A refusal, unreachable host or dial timeout is
// reported as a connection error.
func (t *Transport) Connect() error {
	if t.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", t.Addr(), t.connectTimeout)
	if err != nil {
		return scpi.NewConnectionError("cannot connect to "+t.Addr(), err)
	}

	t.conn = conn
	t.pending = nil
	t.logger.Debug("tcp: connected", "addr", t.Addr())

	return nil
}

// Disconnect closes the TCP connection. It is idempotent and never fails.
func (t *Transport) Disconnect() error {
	if t.conn == nil {
		return nil
	}

	_ = t.conn.Close()
	t.conn = nil
	t.pending = nil
	t.logger.Debug("tcp: disconnected", "addr", t.Addr())

	return nil
}

// IsConnected reports whether the transport holds an open socket.
// It performs no I/O.
func (t *Transport) IsConnected() bool {
	return t.conn != nil
}

// Send writes one command or query line, appending exactly one newline
// unless text already ends with one.
func (t *Transport) Send(text string) error {
	if !strings.HasSuffix(text, string(terminator)) {
		text += string(terminator)
	}

	return t.write([]byte(text), "send failed")
}

// SendRaw writes data verbatim with no terminator handling.
func (t *Transport) SendRaw(data []byte) error {
	return t.write(data, "raw send failed")
}

func (t *Transport) write(payload []byte, faultMsg string) error {
	if t.conn == nil {
		return scpi.ErrNotConnected
	}

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		t.drop()
		return scpi.NewConnectionError(faultMsg, err)
	}

	if _, err := t.conn.Write(payload); err != nil {
		t.drop()
		return scpi.NewConnectionError(faultMsg, err)
	}

	return nil
}

// Receive blocks until a complete newline-terminated line is available or
// the timeout elapses, and returns the line with the terminator and
// surrounding whitespace stripped. A timeout <= 0 selects the transport
// default; a positive timeout applies to this call only.
func (t *Transport) Receive(timeout time.Duration) (string, error) {
	if t.conn == nil {
		return "", scpi.ErrNotConnected
	}

	deadline := time.Now().Add(t.effectiveTimeout(timeout))

	for {
		if i := bytes.IndexByte(t.pending, terminator); i >= 0 {
			line := string(t.pending[:i+1])
			t.pending = append([]byte(nil), t.pending[i+1:]...)

			return strings.TrimSpace(line), nil
		}

		if err := t.fill(deadline, readChunkSize); err != nil {
			if scpi.IsTimeoutError(err) {
				return "", scpi.NewTimeoutError("no complete line received before timeout", err)
			}
			// A fault read may still have delivered the rest of the line;
			// serve it before surfacing the dead link on the next call.
			if bytes.IndexByte(t.pending, terminator) >= 0 {
				continue
			}

			return "", err
		}
	}
}

// ReceiveRaw blocks until exactly count bytes are collected or the timeout
// elapses. On timeout the returned error reports how many bytes were
// obtained; the partial data is discarded.
func (t *Transport) ReceiveRaw(count int, timeout time.Duration) ([]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("tcp: raw receive count must be positive, got %d", count)
	}
	if t.conn == nil {
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
				te.Msg = "raw receive timed out"
				te.Want = count
				te.Got = len(t.pending)
				t.pending = nil

				return nil, err
			}
			// The fault read may still have completed the block.
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

// fill performs one deadline-bounded socket read of up to max bytes and
// appends the result to the pending buffer. Faults other than a deadline
// expiry drop the transport to the disconnected state.
func (t *Transport) fill(deadline time.Time, max int) error {
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		t.drop()
		return scpi.NewConnectionError("receive failed", err)
	}

	buf := make([]byte, max)
	n, err := t.conn.Read(buf)
	if n > 0 {
		t.pending = append(t.pending, buf[:n]...)
	}
	if err == nil {
		return nil
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return scpi.NewTimeoutError("read deadline exceeded", err)
	}

	t.drop()
	if errors.Is(err, io.EOF) {
		return scpi.NewConnectionError("connection closed by instrument", err)
	}

	return scpi.NewConnectionError("receive failed", err)
}

func (t *Transport) effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}

	return t.timeout
}

// drop force-closes the socket and marks the transport disconnected after a
// transport-level fault, so subsequent calls fail fast instead of hanging.
func (t *Transport) drop() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.logger.Debug("tcp: connection dropped after fault", "addr", t.Addr())
}
