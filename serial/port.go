package serial

import (
	"time"

	"go.bug.st/serial"
)

// port abstracts the subset of go.bug.st/serial.Port used by this package,
// so tests can substitute a fake implementation.
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(d time.Duration) error
	ResetInputBuffer() error
}

// openPort opens the physical driver port. Tests swap it for a fake opener.
var openPort = func(name string, mode *serial.Mode) (port, error) {
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	return p, nil
}
