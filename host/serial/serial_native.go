//go:build !wasm

package serial

import (
	"fmt"

	"github.com/tarm/serial"
)

// Open opens cfg.Device for writing and returns a Trace on it
func Open(cfg *Config) (*Trace, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("no serial device given")
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return NewTrace(port), nil
}
