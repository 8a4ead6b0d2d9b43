package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegisteredDevice(t *testing.T) (*Device, *fakeTransport) {
	t.Helper()

	ft := &fakeTransport{connected: true}
	d, err := New(ft)
	require.NoError(t, err)

	return d, ft
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	d, _ := newRegisteredDevice(t)

	require.NoError(t, reg.Register("scope", d))

	got, ok := reg.Get("scope")
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Equal(t, 1, reg.Size())
}

func TestRegistry_GetMissing(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Get("ghost")
	assert.False(t, ok)
}

func TestRegistry_Duplicate(t *testing.T) {
	reg := NewRegistry()
	d1, _ := newRegisteredDevice(t)
	d2, _ := newRegisteredDevice(t)

	require.NoError(t, reg.Register("scope", d1))

	err := reg.Register("scope", d2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	got, _ := reg.Get("scope")
	assert.Same(t, d1, got)
}

func TestRegistry_InvalidArgs(t *testing.T) {
	reg := NewRegistry()
	d, _ := newRegisteredDevice(t)

	require.Error(t, reg.Register("", d))
	require.Error(t, reg.Register("scope", nil))
}

func TestRegistry_Remove(t *testing.T) {
	reg := NewRegistry()
	d, _ := newRegisteredDevice(t)

	require.NoError(t, reg.Register("scope", d))

	removed, ok := reg.Remove("scope")
	require.True(t, ok)
	assert.Same(t, d, removed)
	assert.Equal(t, 0, reg.Size())

	_, ok = reg.Remove("scope")
	assert.False(t, ok)
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()

	for _, name := range []string{"supply", "generator", "scope"} {
		d, _ := newRegisteredDevice(t)
		require.NoError(t, reg.Register(name, d))
	}

	assert.Equal(t, []string{"generator", "scope", "supply"}, reg.Names())
}

func TestRegistry_DisconnectAll(t *testing.T) {
	reg := NewRegistry()

	d1, ft1 := newRegisteredDevice(t)
	d2, ft2 := newRegisteredDevice(t)
	require.NoError(t, reg.Register("scope", d1))
	require.NoError(t, reg.Register("supply", d2))

	reg.DisconnectAll()

	assert.False(t, ft1.connected)
	assert.False(t, ft2.connected)
	assert.Equal(t, 2, reg.Size()) // devices stay registered
}
