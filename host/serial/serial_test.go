package serial

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPort records writes and can be told to fail
type memPort struct {
	buf    bytes.Buffer
	fail   error
	closed bool
}

func (p *memPort) Write(b []byte) (int, error) {
	if p.fail != nil {
		return 0, p.fail
	}
	return p.buf.Write(b)
}

func (p *memPort) Close() error {
	p.closed = true
	return nil
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, DefaultBaud, cfg.Baud)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)

	_, err = Open(&Config{})
	assert.EqualError(t, err, "no serial device given")

	missing := filepath.Join(t.TempDir(), "ttyNONE")
	_, err = Open(DefaultConfig(missing))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open serial port "+missing)
}

func TestTraceLineEndings(t *testing.T) {
	port := &memPort{}
	tr := NewTrace(port)

	n, err := tr.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n, "reports the caller's length")
	assert.Equal(t, "one\r\ntwo\r\n", port.buf.String())
	assert.Equal(t, 2, tr.Lines())

	require.NoError(t, tr.Close())
	assert.True(t, port.closed)
	require.NoError(t, tr.Close(), "second close is a no-op")
	_, err = tr.Write([]byte("late\n"))
	assert.NoError(t, err)
}

func TestTraceDetachesOnError(t *testing.T) {
	port := &memPort{}
	tr := NewTrace(port)
	_, _ = tr.Write([]byte("a\n"))

	unplugged := errors.New("device gone")
	port.fail = unplugged
	n, err := tr.Write([]byte("b\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, tr.Err(), unplugged)

	port.fail = nil
	_, _ = tr.Write([]byte("c\n"))
	assert.Equal(t, "a\r\n", port.buf.String(), "detached port gets nothing")
	assert.Equal(t, 1, tr.Lines())
}
