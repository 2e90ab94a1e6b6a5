//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"tweakly/core"
)

// gpioCount covers GPIO0-GPIO29, the user lines of the QFN-56 packages
const gpioCount = 30

var errNoSuchPin = errors.New("gpio: no such pin")

// RPGPIODriver implements core.GPIODriver on the RP2040/RP2350 SIO block
type RPGPIODriver struct {
	// Track configured pins so unconfigured reads are rejected
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigurePin sets the direction and bias of a pin. Reconfiguring a pin
// is allowed.
func (d *RPGPIODriver) ConfigurePin(pin core.GPIOPin, mode core.PinMode) error {
	if pin >= gpioCount {
		return errNoSuchPin
	}
	var cfg machine.PinConfig
	switch mode {
	case core.Input:
		cfg.Mode = machine.PinInput
	case core.InputPullUp:
		cfg.Mode = machine.PinInputPullup
	case core.InputPullDown:
		cfg.Mode = machine.PinInputPulldown
	case core.Output:
		cfg.Mode = machine.PinOutput
	default:
		return errors.New("gpio: invalid mode")
	}

	// For RP2040, pins map directly to GPIO numbers
	machinePin := machine.Pin(pin)
	machinePin.Configure(cfg)
	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return errNoSuchPin
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return false, errNoSuchPin
	}
	return machinePin.Get(), nil
}
