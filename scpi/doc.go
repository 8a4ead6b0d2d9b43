// Package scpi defines the transport contract and error taxonomy shared by
// all go-scpi packages.
//
// SCPI (Standard Commands for Programmable Instruments) is a line-oriented
// ASCII request/response protocol spoken by test-and-measurement hardware
// such as oscilloscopes, power supplies and signal generators. Instruments
// are reachable over LAN/LXI raw TCP sockets or serial (USB-CDC, RS-232)
// links; this package abstracts over the physical medium.
//
// # Transport Contract
//
// The [Transport] interface is the capability set every physical link must
// implement: connection lifecycle (Connect/Disconnect/IsConnected), line
// framing (Send/Receive) and byte-exact raw I/O (SendRaw/ReceiveRaw) for
// binary payloads such as waveform dumps. Concrete implementations live in
// the tcp and serial packages; the device package builds the instrument
// facade on top of this contract and never touches the medium directly.
//
// # Error Taxonomy
//
// Every failure surfaced by go-scpi is one of exactly three kinds:
//
//   - [ConnectionError]: the link could not be established, was lost, or a
//     send/receive failed at the transport level. The transport always drops
//     to the disconnected state alongside this error.
//   - [TimeoutError]: a bounded receive wait (line or raw) expired without
//     the link itself failing. For raw receives the error reports the byte
//     counts obtained versus requested.
//   - [ProtocolError]: the instrument responded, but the response content
//     does not match the expected shape. This kind is never about the link.
//
// Use [IsConnectionError], [IsTimeoutError] and [IsProtocolError] to
// classify errors through any wrapping.
package scpi
