package device

import (
	"errors"
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is a concurrency-safe directory of named devices, for callers
// driving several instruments from one place (a scope, a supply and a
// generator on one bench).
//
// Registry synchronizes its own map only. The devices themselves keep the
// single-caller contract: concurrent operations on one Device still need
// external synchronization.
type Registry struct {
	devices *xsync.MapOf[string, *Device]
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: xsync.NewMapOf[string, *Device](),
	}
}

// Register adds a device under name. It fails if the name is empty or
// already registered.
func (r *Registry) Register(name string, d *Device) error {
	if name == "" {
		return errors.New("device: registry name must not be empty")
	}
	if d == nil {
		return errors.New("device: registry device must not be nil")
	}

	if _, loaded := r.devices.LoadOrStore(name, d); loaded {
		return fmt.Errorf("device: %q is already registered", name)
	}

	return nil
}

// Get returns the device registered under name.
func (r *Registry) Get(name string) (*Device, bool) {
	return r.devices.Load(name)
}

// Remove removes the device registered under name and returns it. The
// device is not disconnected.
func (r *Registry) Remove(name string) (*Device, bool) {
	return r.devices.LoadAndDelete(name)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.devices.Size())
	r.devices.Range(func(name string, _ *Device) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)

	return names
}

// Size returns the number of registered devices.
func (r *Registry) Size() int {
	return r.devices.Size()
}

// DisconnectAll disconnects every registered device, keeping all of them
// registered. Disconnect is idempotent and never fails, so the walk always
// completes.
func (r *Registry) DisconnectAll() {
	r.devices.Range(func(_ string, d *Device) bool {
		_ = d.Disconnect()
		return true
	})
}
