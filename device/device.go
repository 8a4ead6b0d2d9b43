package device

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/scpi"
)

// Device is a high-level SCPI instrument interface built on a
// [scpi.Transport]. It owns a reference to exactly one transport but not
// the transport's lifecycle: callers may pass an already-connected
// transport and manage connection themselves.
//
// Device performs purely synchronous, blocking round trips and holds no
// state beyond the transport reference. It is not safe for concurrent use.
type Device struct {
	transport scpi.Transport
	logger    logger.Logger
}

// New creates a Device around transport. By default it connects the
// transport if it is not already connected; use [WithAutoConnect] with
// false to defer connection to the caller.
func New(transport scpi.Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, errors.New("device: transport is nil")
	}

	d := &Device{
		transport: transport,
		logger:    logger.GetLogger(),
	}

	autoConnect := true
	for _, opt := range opts {
		if err := opt.apply(d, &autoConnect); err != nil {
			return nil, err
		}
	}

	if autoConnect && !transport.IsConnected() {
		if err := transport.Connect(); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Use runs fn with a Device scoped to the call: the transport is connected
// if needed on entry and always disconnected on exit, regardless of whether
// fn or any operation inside it failed.
func Use(transport scpi.Transport, fn func(*Device) error) error {
	d, err := New(transport)
	if err != nil {
		return err
	}
	defer func() { _ = transport.Disconnect() }()

	return fn(d)
}

// Transport returns the underlying transport.
func (d *Device) Transport() scpi.Transport { return d.transport }

// Connect connects the underlying transport. Idempotent.
func (d *Device) Connect() error { return d.transport.Connect() }

// Disconnect disconnects the underlying transport. Idempotent.
func (d *Device) Disconnect() error { return d.transport.Disconnect() }

// IsConnected reports whether the underlying transport is connected.
func (d *Device) IsConnected() bool { return d.transport.IsConnected() }

// Command sends a fire-and-forget command. No response is expected or
// consumed.
func (d *Device) Command(cmd string) error {
	d.logger.Debug("device: command", "cmd", cmd)
	return d.transport.Send(cmd)
}

// Query sends cmd and returns the response line. A timeout <= 0 selects the
// transport's default; a positive timeout applies to this call only.
func (d *Device) Query(cmd string, timeout time.Duration) (string, error) {
	d.logger.Debug("device: query", "cmd", cmd)

	if err := d.transport.Send(cmd); err != nil {
		return "", err
	}

	return d.transport.Receive(timeout)
}

// QueryFloat sends cmd and parses the response as a float64. Instruments
// report values in forms such as "+1.234500E-03" or plain decimal; any
// value strconv.ParseFloat accepts is valid. Anything else is a protocol
// error naming the command and the literal response.
func (d *Device) QueryFloat(cmd string, timeout time.Duration) (float64, error) {
	resp, err := d.Query(cmd, timeout)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, scpi.NewProtocolError(cmd, resp, "float")
	}

	return v, nil
}

// QueryInt sends cmd and parses the response as an int. Any value
// strconv.ParseInt accepts in base 10 is valid; anything else is a protocol
// error naming the command and the literal response.
func (d *Device) QueryInt(cmd string, timeout time.Duration) (int, error) {
	resp, err := d.Query(cmd, timeout)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseInt(resp, 10, 64)
	if err != nil {
		return 0, scpi.NewProtocolError(cmd, resp, "int")
	}

	return int(v), nil
}

// QueryBool sends cmd and parses a 0/1 or OFF/ON response as a bool. The
// comparison is case-insensitive on the trimmed response; any other token
// is a protocol error.
func (d *Device) QueryBool(cmd string, timeout time.Duration) (bool, error) {
	resp, err := d.Query(cmd, timeout)
	if err != nil {
		return false, err
	}

	switch strings.ToUpper(strings.TrimSpace(resp)) {
	case "1", "ON":
		return true, nil
	case "0", "OFF":
		return false, nil
	default:
		return false, scpi.NewProtocolError(cmd, resp, "boolean")
	}
}

// QueryRaw sends cmd and reads exactly count raw bytes, for binary payloads
// such as waveform blocks. The caller knows the byte count in advance,
// typically from a prior query.
func (d *Device) QueryRaw(cmd string, count int, timeout time.Duration) ([]byte, error) {
	d.logger.Debug("device: raw query", "cmd", cmd, "count", count)

	if err := d.transport.Send(cmd); err != nil {
		return nil, err
	}

	return d.transport.ReceiveRaw(count, timeout)
}

// Option is a functional option for configuring a Device.
type Option interface {
	apply(d *Device, autoConnect *bool) error
}

type optFunc func(d *Device, autoConnect *bool) error

func (f optFunc) apply(d *Device, autoConnect *bool) error { return f(d, autoConnect) }

// WithAutoConnect controls whether [New] connects a disconnected transport.
// Enabled by default.
func WithAutoConnect(enabled bool) Option {
	return optFunc(func(_ *Device, autoConnect *bool) error {
		*autoConnect = enabled
		return nil
	})
}

// WithLogger sets the logger for the device.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(d *Device, _ *bool) error {
		if l == nil {
			return errors.New("device: logger must not be nil")
		}
		d.logger = l

		return nil
	})
}
