package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-scpi/logger"
)

// Option is a functional option for configuring a Transport.
type Option interface {
	apply(*Transport) error
}

type optFunc func(*Transport) error

func (f optFunc) apply(t *Transport) error { return f(t) }

// WithBaudRate sets the serial line speed. The default is [DefaultBaudRate].
func WithBaudRate(baud int) Option {
	return optFunc(func(t *Transport) error {
		if baud <= 0 {
			return fmt.Errorf("serial: baud rate must be positive, got %d", baud)
		}
		t.baudRate = baud

		return nil
	})
}

// WithTimeout sets the default deadline for receive and raw receive
// operations. Individual receives may override it per call.
func WithTimeout(d time.Duration) Option {
	return optFunc(func(t *Transport) error {
		if d <= 0 {
			return errors.New("serial: timeout must be positive")
		}
		t.timeout = d

		return nil
	})
}

// WithTerminator sets the line terminator. The default is "\n"; instruments
// on RS-232 links commonly use "\r\n".
func WithTerminator(term string) Option {
	return optFunc(func(t *Transport) error {
		if term == "" {
			return errors.New("serial: terminator must not be empty")
		}
		t.terminator = term

		return nil
	})
}

// WithLogger sets the logger for the transport.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(t *Transport) error {
		if l == nil {
			return errors.New("serial: logger must not be nil")
		}
		t.logger = l

		return nil
	})
}
