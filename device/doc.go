// Package device provides the instrument-level SCPI facade built on the
// [scpi.Transport] contract.
//
// A [Device] wraps exactly one transport and exposes command/query
// operations, typed query parsing (float, int, bool, raw bytes) and the
// IEEE-488.2 common-command set (*IDN?, *RST, *OPC?, error-queue draining
// and friends) that every SCPI instrument implements. The Device is
// stateless beyond the transport reference: no buffering, no command
// history.
//
// Typical use:
//
//	tr, err := tcp.NewTransport("192.168.1.50", 0)
//	if err != nil {
//		return err
//	}
//	err = device.Use(tr, func(d *device.Device) error {
//		id, err := d.IDN()
//		if err != nil {
//			return err
//		}
//		fmt.Println(id)
//		return d.Reset()
//	})
//
// [Use] guarantees the transport is disconnected on every exit path. For
// longer-lived sessions construct with [New] (which connects by default)
// and defer [Device.Disconnect].
//
// The package also provides [Registry], a concurrency-safe name→device map
// for callers driving several instruments (scope, supply, generator) from
// one place. It is a directory, not a multiplexer: each Device still owns a
// single transport, and a single Device must not be used from concurrent
// goroutines without external synchronization.
package device
