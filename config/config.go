// Package config loads instrument definitions from TOML files and
// constructs the matching transports and devices.
//
// A definition file lists instruments, each selecting a transport kind and
// its parameters:
//
//	[[instrument]]
//	name      = "scope"
//	transport = "tcp"
//	host      = "192.168.1.50"
//	port      = 5555
//	timeout   = "3s"
//
//	[[instrument]]
//	name       = "supply"
//	transport  = "serial"
//	port_path  = "/dev/ttyUSB0"
//	baud_rate  = 9600
//	terminator = "\r\n"
//
// Omitted fields fall back to the transport defaults (TCP port 5555, baud
// 115200, newline terminator, 5s timeout). Configuration files are optional
// sugar: constructing transports directly remains the primary API.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/go-scpi/device"
	"github.com/arloliu/go-scpi/scpi"
	"github.com/arloliu/go-scpi/serial"
	"github.com/arloliu/go-scpi/tcp"
)

// Transport kinds accepted in the "transport" field.
const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
)

// Config is a parsed instrument-definition file.
type Config struct {
	Instruments []Instrument `toml:"instrument"`
}

// Instrument is one instrument definition. Host/Port apply to the tcp
// transport, PortPath/BaudRate/Terminator to serial; Timeout applies to
// both.
type Instrument struct {
	Name       string   `toml:"name"`
	Transport  string   `toml:"transport"`
	Host       string   `toml:"host"`
	Port       int      `toml:"port"`
	PortPath   string   `toml:"port_path"`
	BaudRate   int      `toml:"baud_rate"`
	Terminator string   `toml:"terminator"`
	Timeout    Duration `toml:"timeout"`
}

// Duration is a time.Duration that unmarshals from TOML strings such as
// "3s" or "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed

	return nil
}

// Load reads and validates an instrument-definition file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: load failed (%s): %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse failed (%s): %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every instrument has a unique name, a known
// transport kind and the fields that kind requires.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Instruments))

	for i := range c.Instruments {
		ins := &c.Instruments[i]

		if ins.Name == "" {
			return fmt.Errorf("config: instrument #%d has no name", i+1)
		}
		if _, dup := seen[ins.Name]; dup {
			return fmt.Errorf("config: duplicate instrument name %q", ins.Name)
		}
		seen[ins.Name] = struct{}{}

		switch ins.Transport {
		case TransportTCP:
			if ins.Host == "" {
				return fmt.Errorf("config: instrument %q: host is required for tcp", ins.Name)
			}
			if ins.PortPath != "" || ins.BaudRate != 0 || ins.Terminator != "" {
				return fmt.Errorf("config: instrument %q: port_path, baud_rate and terminator apply to serial only", ins.Name)
			}
		case TransportSerial:
			if ins.PortPath == "" {
				return fmt.Errorf("config: instrument %q: port_path is required for serial", ins.Name)
			}
			if ins.Host != "" || ins.Port != 0 {
				return fmt.Errorf("config: instrument %q: host and port apply to tcp only", ins.Name)
			}
		default:
			return fmt.Errorf("config: instrument %q: unknown transport %q", ins.Name, ins.Transport)
		}
	}

	return nil
}

// NewTransport constructs the transport this definition describes. The
// transport is created disconnected.
func (ins *Instrument) NewTransport() (scpi.Transport, error) {
	switch ins.Transport {
	case TransportTCP:
		var opts []tcp.Option
		if ins.Timeout.Duration > 0 {
			opts = append(opts, tcp.WithTimeout(ins.Timeout.Duration))
		}

		return tcp.NewTransport(ins.Host, ins.Port, opts...)

	case TransportSerial:
		var opts []serial.Option
		if ins.BaudRate != 0 {
			opts = append(opts, serial.WithBaudRate(ins.BaudRate))
		}
		if ins.Terminator != "" {
			opts = append(opts, serial.WithTerminator(ins.Terminator))
		}
		if ins.Timeout.Duration > 0 {
			opts = append(opts, serial.WithTimeout(ins.Timeout.Duration))
		}

		return serial.NewTransport(ins.PortPath, opts...)

	default:
		return nil, fmt.Errorf("config: instrument %q: unknown transport %q", ins.Name, ins.Transport)
	}
}

// BuildRegistry constructs a device for every instrument in the file and
// registers it under the instrument name. Devices are created disconnected;
// callers connect them as needed.
func (c *Config) BuildRegistry() (*device.Registry, error) {
	reg := device.NewRegistry()

	for i := range c.Instruments {
		ins := &c.Instruments[i]

		tr, err := ins.NewTransport()
		if err != nil {
			return nil, fmt.Errorf("config: instrument %q: %w", ins.Name, err)
		}

		dev, err := device.New(tr, device.WithAutoConnect(false))
		if err != nil {
			return nil, fmt.Errorf("config: instrument %q: %w", ins.Name, err)
		}

		if err := reg.Register(ins.Name, dev); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
