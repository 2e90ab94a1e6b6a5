// Package serial mirrors host-side trace output to a UART, such as a USB
// serial adapter wired to a logic analyser or a second terminal.
package serial

import (
	"bytes"
	"io"
	"sync"
)

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate
	Baud int
}

// DefaultBaud is the rate used when a trace device is given without one
const DefaultBaud = 115200

// DefaultConfig returns a trace configuration for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   DefaultBaud,
	}
}

var (
	lf   = []byte("\n")
	crlf = []byte("\r\n")
)

// Trace mirrors log lines to a port. Lines go out CRLF terminated, the way
// the firmware's debug UART prints them. The first failed write detaches
// the port: later lines are dropped and Err reports the failure, so an
// unplugged adapter never stalls the scheduler loop feeding the log.
type Trace struct {
	mu    sync.Mutex
	port  io.WriteCloser
	err   error
	lines int
}

// NewTrace wraps an already open port
func NewTrace(port io.WriteCloser) *Trace {
	return &Trace{port: port}
}

// Write implements io.Writer. It never fails so the other log writers keep
// working.
func (t *Trace) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil || t.port == nil {
		return len(b), nil
	}
	if _, err := t.port.Write(bytes.ReplaceAll(b, lf, crlf)); err != nil {
		t.err = err
		return len(b), nil
	}
	t.lines += bytes.Count(b, lf)
	return len(b), nil
}

// Lines returns how many lines reached the port
func (t *Trace) Lines() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lines
}

// Err returns the write error that detached the port, if any
func (t *Trace) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close closes the port
func (t *Trace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
