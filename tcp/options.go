package tcp

import (
	"errors"
	"time"

	"github.com/arloliu/go-scpi/logger"
)

// Option is a functional option for configuring a Transport.
type Option interface {
	apply(*Transport) error
}

type optFunc func(*Transport) error

func (f optFunc) apply(t *Transport) error { return f(t) }

// WithTimeout sets the default deadline for send, receive and raw receive
// operations. Individual receives may override it per call.
func WithTimeout(d time.Duration) Option {
	return optFunc(func(t *Transport) error {
		if d <= 0 {
			return errors.New("tcp: timeout must be positive")
		}
		t.timeout = d

		return nil
	})
}

// WithConnectTimeout sets the deadline for establishing the TCP connection.
func WithConnectTimeout(d time.Duration) Option {
	return optFunc(func(t *Transport) error {
		if d <= 0 {
			return errors.New("tcp: connect timeout must be positive")
		}
		t.connectTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the transport.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(t *Transport) error {
		if l == nil {
			return errors.New("tcp: logger must not be nil")
		}
		t.logger = l

		return nil
	})
}
