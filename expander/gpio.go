// Package expander adapts I2C port expanders and PWM controllers to the
// scheduler's driver interfaces, so buttons, LEDs and encoders can live
// off-chip.
package expander

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"

	"tweakly/core"
)

// ErrNoPullDown is returned for InputPullDown: the MCP23017 only has
// pull-up resistors.
var ErrNoPullDown = errors.New("mcp23017: pull-down not available")

// GPIO drives one or more MCP23017 chips as a single bank. Chip i owns
// lines 16*i to 16*i+15 in the order the addresses were given.
type GPIO struct {
	devs mcp23017.Devices
}

// NewGPIO probes every address on bus. All lines start as inputs.
func NewGPIO(bus drivers.I2C, addrs ...uint8) (*GPIO, error) {
	if len(addrs) == 0 {
		return nil, errors.New("mcp23017: no addresses")
	}
	devs, err := mcp23017.NewI2CDevices(bus, addrs...)
	if err != nil {
		return nil, err
	}
	return &GPIO{devs: devs}, nil
}

// Lines returns the number of lines in the bank
func (g *GPIO) Lines() int {
	return len(g.devs) * mcp23017.PinCount
}

func (g *GPIO) pin(pin core.GPIOPin) (mcp23017.Pin, error) {
	if int(pin) >= g.Lines() {
		return mcp23017.Pin{}, fmt.Errorf("mcp23017: line %d out of range", pin)
	}
	return g.devs.Pin(int(pin)), nil
}

// ConfigurePin implements core.GPIODriver
func (g *GPIO) ConfigurePin(pin core.GPIOPin, mode core.PinMode) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	var m mcp23017.PinMode
	switch mode {
	case core.Input:
		m = mcp23017.Input
	case core.InputPullUp:
		m = mcp23017.Input | mcp23017.Pullup
	case core.InputPullDown:
		return ErrNoPullDown
	case core.Output:
		m = mcp23017.Output
	default:
		return fmt.Errorf("mcp23017: invalid mode %d", mode)
	}
	return p.SetMode(m)
}

// SetPin implements core.GPIODriver. The chip caches the output latch so
// an unchanged level costs no bus traffic.
func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	return p.Set(value)
}

// GetPin implements core.GPIODriver
func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	p, err := g.pin(pin)
	if err != nil {
		return false, err
	}
	return p.Get()
}
