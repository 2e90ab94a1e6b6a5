package expander

import (
	"errors"
	"fmt"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/pca9685"

	"tweakly/core"
)

// pcaChannels is the number of outputs on a PCA9685
const pcaChannels = 16

// PWM drives the 16 channels of a PCA9685 with 12-bit duty values
type PWM struct {
	bus        drivers.I2C
	addr       uint8
	dev        pca9685.Dev
	configured uint16 // bit per channel
}

// NewPWM checks the chip answers, enables auto-increment and sets the
// output period (1ms to 25ms; zero picks 1ms).
func NewPWM(bus drivers.I2C, addr uint8, period time.Duration) (*PWM, error) {
	dev := pca9685.New(bus, addr)
	if err := dev.IsConnected(); err != nil {
		return nil, err
	}
	if err := dev.Configure(pca9685.PWMConfig{Period: uint64(period)}); err != nil {
		return nil, err
	}
	return &PWM{bus: bus, addr: addr, dev: dev}, nil
}

// ConfigurePWM implements core.PWMDriver
func (p *PWM) ConfigurePWM(pin core.PWMPin) error {
	if pin >= pcaChannels {
		return fmt.Errorf("pca9685: channel %d out of range", pin)
	}
	p.configured |= 1 << pin
	return nil
}

// SetDutyCycle implements core.PWMDriver. The write goes straight to the
// channel's LEDn registers so bus errors reach the caller.
func (p *PWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	if pin >= pcaChannels || p.configured&(1<<pin) == 0 {
		return fmt.Errorf("pca9685: channel %d not configured", pin)
	}
	if uint32(value) > p.dev.Top() {
		return errors.New("pca9685: value must be in range 0..4095")
	}
	onL, _, _, _ := pca9685.LED(uint8(pin))
	on := uint16(value)
	// ON_L, ON_H, OFF_L, OFF_H with auto-increment
	buf := [5]byte{onL, byte(on), byte(on >> 8), 0, 0}
	return p.bus.Tx(uint16(p.addr), buf[:], nil)
}

// MaxValue implements core.PWMDriver
func (p *PWM) MaxValue() core.PWMValue {
	return core.PWMValue(p.dev.Top())
}
