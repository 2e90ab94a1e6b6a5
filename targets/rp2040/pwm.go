//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"tweakly/core"
)

// pwmMax is the duty scale the scheduler sees
const pwmMax = 255

// pwmPeriod is the carrier period in nanoseconds (1 kHz)
const pwmPeriod = 1_000_000

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// RP2040PWMDriver implements core.PWMDriver on the 8 hardware PWM slices
// (2 channels each). Every slice runs at pwmPeriod.
type RP2040PWMDriver struct {
	// Track pin to channel mapping
	channels map[core.PWMPin]uint8

	// Configured PWM peripheral for each slice
	peripherals map[uint8]pwmPeripheral
}

// NewRP2040PWMDriver creates a new PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{
		channels:    make(map[core.PWMPin]uint8),
		peripherals: make(map[uint8]pwmPeripheral),
	}
}

// MaxValue implements core.PWMDriver
func (d *RP2040PWMDriver) MaxValue() core.PWMValue {
	return pwmMax
}

// ConfigurePWM routes pin to its PWM slice channel
func (d *RP2040PWMDriver) ConfigurePWM(pin core.PWMPin) error {
	if pin >= gpioCount {
		return errNoSuchPin
	}
	// GPIO pin N maps to slice (N >> 1) & 0x7, channel N & 1
	sliceNum := uint8((uint32(pin) >> 1) & 0x7)

	pwm, exists := d.peripherals[sliceNum]
	if !exists {
		pwm = getPWMPeripheral(sliceNum)
		if err := pwm.Configure(machine.PWMConfig{Period: pwmPeriod}); err != nil {
			return err
		}
		d.peripherals[sliceNum] = pwm
	}

	channel, err := pwm.Channel(machine.Pin(pin))
	if err != nil {
		return err
	}
	d.channels[pin] = channel
	return nil
}

// SetDutyCycle sets the PWM duty cycle for a pin
// value: 0 (fully off) to 255 (fully on)
func (d *RP2040PWMDriver) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	channel, exists := d.channels[pin]
	if !exists {
		return errors.New("pwm: pin not configured")
	}
	if value > pwmMax {
		return errors.New("pwm: duty out of range")
	}
	pwm := d.peripherals[uint8((uint32(pin)>>1)&0x7)]

	// Scale 0-255 onto the slice's counter top
	top := pwm.Top()
	pwm.Set(channel, (uint32(value)*top)/pwmMax)
	return nil
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	// TinyGo defines PWM0-PWM7 as global variables of type *pwmGroup
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
