package serial

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bugst "go.bug.st/serial"

	"github.com/arloliu/go-scpi/scpi"
)

// fakePort scripts driver behavior for tests. Reads drain the scripted
// input; an empty script simulates the driver read timeout (zero-length
// read after the configured timeout, matching go.bug.st/serial).
type fakePort struct {
	input       bytes.Buffer
	written     bytes.Buffer
	readTimeout time.Duration
	readErr     error
	writeErr    error
	flushErr    error
	closed      bool
	flushed     int
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if f.input.Len() == 0 {
		time.Sleep(f.readTimeout)
		return 0, nil
	}

	return f.input.Read(p)
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}

	return f.written.Write(p)
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func (f *fakePort) SetReadTimeout(d time.Duration) error {
	f.readTimeout = d
	return nil
}

func (f *fakePort) ResetInputBuffer() error {
	if f.flushErr != nil {
		return f.flushErr
	}
	f.flushed++
	f.input.Reset()

	return nil
}

// installFakePort redirects the package opener to f for the duration of the
// test and records the mode the transport opened with.
func installFakePort(t *testing.T, f *fakePort, openErr error) *bugst.Mode {
	t.Helper()

	opened := &bugst.Mode{}
	orig := openPort
	openPort = func(name string, mode *bugst.Mode) (port, error) {
		if openErr != nil {
			return nil, openErr
		}
		*opened = *mode

		return f, nil
	}
	t.Cleanup(func() { openPort = orig })

	return opened
}

// newTestTransport creates a connected transport backed by f.
func newTestTransport(t *testing.T, f *fakePort, opts ...Option) *Transport {
	t.Helper()

	installFakePort(t, f, nil)

	defaults := []Option{WithTimeout(time.Second)}
	tr, err := NewTransport("/dev/ttyUSB0", append(defaults, opts...)...)
	require.NoError(t, err)
	require.NoError(t, tr.Connect())

	return tr
}

func TestNewTransport_Defaults(t *testing.T) {
	tr, err := NewTransport("/dev/ttyUSB0")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", tr.PortName())
	assert.Equal(t, DefaultBaudRate, tr.BaudRate())
	assert.Equal(t, DefaultTimeout, tr.Timeout())
	assert.Equal(t, "\n", tr.Terminator())
	assert.False(t, tr.IsConnected())
}

func TestNewTransport_Invalid(t *testing.T) {
	_, err := NewTransport("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port name")
}

func TestOptions_Invalid(t *testing.T) {
	_, err := NewTransport("/dev/ttyUSB0", WithBaudRate(0))
	require.Error(t, err)

	_, err = NewTransport("/dev/ttyUSB0", WithTimeout(0))
	require.Error(t, err)

	_, err = NewTransport("/dev/ttyUSB0", WithTerminator(""))
	require.Error(t, err)

	_, err = NewTransport("/dev/ttyUSB0", WithLogger(nil))
	require.Error(t, err)
}

func TestConnect_OpensPortWithMode(t *testing.T) {
	f := &fakePort{}
	mode := installFakePort(t, f, nil)

	tr, err := NewTransport("/dev/ttyACM1", WithBaudRate(9600))
	require.NoError(t, err)
	require.NoError(t, tr.Connect())

	assert.True(t, tr.IsConnected())
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, bugst.NoParity, mode.Parity)
	assert.Equal(t, bugst.OneStopBit, mode.StopBits)
}

func TestConnect_DriverUnavailable(t *testing.T) {
	installFakePort(t, nil, errors.New("no such device"))

	tr, err := NewTransport("/dev/ttyUSB9")
	require.NoError(t, err)

	err = tr.Connect()
	require.Error(t, err)
	assert.True(t, scpi.IsConnectionError(err))
	assert.False(t, tr.IsConnected())
}

func TestConnectDisconnect_Idempotent(t *testing.T) {
	f := &fakePort{}
	tr := newTestTransport(t, f)

	require.NoError(t, tr.Connect()) // no-op while connected
	assert.True(t, tr.IsConnected())

	require.NoError(t, tr.Disconnect())
	assert.False(t, tr.IsConnected())
	assert.True(t, f.closed)

	require.NoError(t, tr.Disconnect()) // no-op while disconnected
	assert.False(t, tr.IsConnected())
}

func TestSend_AppendsTerminator(t *testing.T) {
	f := &fakePort{}
	tr := newTestTransport(t, f)

	require.NoError(t, tr.Send("MEAS:VOLT?"))
	assert.Equal(t, "MEAS:VOLT?\n", f.written.String())
}

func TestSend_NoDoubleTerminator(t *testing.T) {
	f := &fakePort{}
	tr := newTestTransport(t, f)

	require.NoError(t, tr.Send("MEAS:VOLT?\n"))
	assert.Equal(t, "MEAS:VOLT?\n", f.written.String())
}

func TestSend_CustomTerminator(t *testing.T) {
	f := &fakePort{}
	tr := newTestTransport(t, f, WithTerminator("\r\n"))

	require.NoError(t, tr.Send("*RST"))
	assert.Equal(t, "*RST\r\n", f.written.String())
}

func TestSend_NotConnected(t *testing.T) {
	tr, err := NewTransport("/dev/ttyUSB0")
	require.NoError(t, err)

	err = tr.Send("*RST")
	require.ErrorIs(t, err, scpi.ErrNotConnected)
}

func TestSend_WriteFaultDropsPort(t *testing.T) {
	f := &fakePort{writeErr: errors.New("input/output error")}
	tr := newTestTransport(t, f)

	err := tr.Send("*RST")
	require.Error(t, err)
	assert.True(t, scpi.IsConnectionError(err))
	assert.False(t, tr.IsConnected())
}

func TestReceive_Line(t *testing.T) {
	f := &fakePort{}
	f.input.WriteString("+1.234500E-03\n")
	tr := newTestTransport(t, f)

	resp, err := tr.Receive(0)
	require.NoError(t, err)
	assert.Equal(t, "+1.234500E-03", resp)
}

func TestReceive_CustomTerminator(t *testing.T) {
	f := &fakePort{}
	f.input.WriteString("VALUE 42\r\n")
	tr := newTestTransport(t, f, WithTerminator("\r\n"))

	resp, err := tr.Receive(0)
	require.NoError(t, err)
	assert.Equal(t, "VALUE 42", resp)
}

func TestReceive_TwoLinesBuffered(t *testing.T) {
	f := &fakePort{}
	f.input.WriteString("FIRST\nSECOND\n")
	tr := newTestTransport(t, f)

	first, err := tr.Receive(0)
	require.NoError(t, err)
	assert.Equal(t, "FIRST", first)

	second, err := tr.Receive(0)
	require.NoError(t, err)
	assert.Equal(t, "SECOND", second)
}

func TestReceive_Timeout(t *testing.T) {
	f := &fakePort{}
	tr := newTestTransport(t, f)

	start := time.Now()
	_, err := tr.Receive(200 * time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, scpi.IsTimeoutError(err))
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	// A deadline expiry is not a link fault.
	assert.True(t, tr.IsConnected())
}

func TestReceive_ReadFaultDropsPort(t *testing.T) {
	f := &fakePort{readErr: errors.New("device reports readiness to read but returned no data")}
	tr := newTestTransport(t, f)

	_, err := tr.Receive(0)
	require.Error(t, err)
	assert.True(t, scpi.IsConnectionError(err))
	assert.False(t, tr.IsConnected())

	// Subsequent calls fail fast.
	_, err = tr.Receive(0)
	require.ErrorIs(t, err, scpi.ErrNotConnected)
}

func TestReceiveRaw_Exact(t *testing.T) {
	payload := []byte{0x10, 0x20, 0x30, 0x40, 0x50}
	f := &fakePort{}
	f.input.Write(payload)
	tr := newTestTransport(t, f)

	data, err := tr.ReceiveRaw(len(payload), 0)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestReceiveRaw_ShortReportsCounts(t *testing.T) {
	f := &fakePort{}
	f.input.Write([]byte{0x01, 0x02})
	tr := newTestTransport(t, f)

	_, err := tr.ReceiveRaw(8, 200*time.Millisecond)
	require.Error(t, err)

	var te *scpi.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 8, te.Want)
	assert.Equal(t, 2, te.Got)
}

func TestReceiveRaw_LeftoverAfterLine(t *testing.T) {
	f := &fakePort{}
	f.input.WriteString("#14\n")
	f.input.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	tr := newTestTransport(t, f)

	header, err := tr.Receive(0)
	require.NoError(t, err)
	assert.Equal(t, "#14", header)

	data, err := tr.ReceiveRaw(4, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, data)
}

func TestSendRaw_Verbatim(t *testing.T) {
	f := &fakePort{}
	tr := newTestTransport(t, f)

	require.NoError(t, tr.SendRaw([]byte{0x00, 0xFF}))
	assert.Equal(t, []byte{0x00, 0xFF}, f.written.Bytes())
}

func TestFlushInput_DiscardsPending(t *testing.T) {
	f := &fakePort{}
	f.input.WriteString("GARBAGE") // no terminator: stays pending after a timed-out receive
	tr := newTestTransport(t, f)

	_, err := tr.Receive(100 * time.Millisecond)
	require.Error(t, err)
	require.True(t, scpi.IsTimeoutError(err))

	require.NoError(t, tr.FlushInput())
	assert.Equal(t, 1, f.flushed)

	f.input.WriteString("OK\n")
	resp, err := tr.Receive(0)
	require.NoError(t, err)
	assert.Equal(t, "OK", resp)
}

func TestFlushInput_Disconnected(t *testing.T) {
	tr, err := NewTransport("/dev/ttyUSB0")
	require.NoError(t, err)

	require.NoError(t, tr.FlushInput())
}

func TestFlushInput_FaultDropsPort(t *testing.T) {
	f := &fakePort{flushErr: errors.New("input/output error")}
	tr := newTestTransport(t, f)

	err := tr.FlushInput()
	require.Error(t, err)
	assert.True(t, scpi.IsConnectionError(err))
	assert.False(t, tr.IsConnected())
}

func TestInputFlusher_Probe(t *testing.T) {
	f := &fakePort{}
	tr := newTestTransport(t, f)

	var flusher scpi.InputFlusher = tr
	require.NoError(t, flusher.FlushInput())
}
