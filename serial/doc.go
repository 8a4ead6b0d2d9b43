// Package serial implements the [scpi.Transport] contract over a serial
// port (USB-CDC, RS-232, virtual COM ports) using the go.bug.st/serial
// driver.
//
// The framing contract matches the tcp package with two differences: the
// line terminator is configurable (newline by default, "\r\n" for some
// bench instruments) and the baud rate is part of the static configuration.
// Ports are opened 8N1.
//
// The package provides one transport-specific extra beyond the contract:
// [Transport.FlushInput] discards unread buffered input, which is useful to
// resynchronize after a protocol desync such as an aborted raw read.
package serial
