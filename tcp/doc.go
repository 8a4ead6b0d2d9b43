// Package tcp implements the [scpi.Transport] contract over a TCP stream
// socket, the transport used by LAN/LXI instruments exposing a raw SCPI
// socket (conventionally port 5555).
//
// Framing is ASCII text terminated by a single newline byte. Line receives
// accumulate bytes until a newline is seen; anything read past the newline
// stays buffered for the next receive or raw read, so a response burst never
// loses data. Raw receives collect exactly the requested byte count in
// bounded chunks, for binary payloads such as waveform dumps.
//
// All waits are deadline-bounded. A connect refusal or timeout, a
// zero-length read signalling peer shutdown, and any socket fault surface as
// the scpi error taxonomy; faults additionally drop the transport to the
// disconnected state so subsequent calls fail fast.
package tcp
