// Package periph drives the scheduler from Linux single-board computers
// through periph.io. Lines are looked up by their "GPIOn" name.
package periph

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"tweakly/core"
)

// Init loads the periph host drivers. Call it once before NewGPIO.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// NewClock returns a wall clock counting milliseconds from the call. It
// wraps at 2^32 ms like every other Timestamp source.
func NewClock() core.Clock {
	start := time.Now()
	return core.ClockFunc(func() core.Timestamp {
		return core.Timestamp(uint32(time.Since(start).Milliseconds()))
	})
}

// lineName maps a line number to its gpioreg name
func lineName(n uint32) string {
	return "GPIO" + strconv.FormatUint(uint64(n), 10)
}

type lines struct {
	mu    sync.Mutex
	cache map[uint32]gpio.PinIO
}

func (l *lines) get(n uint32) (gpio.PinIO, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.cache[n]; ok {
		return p, nil
	}
	p := gpioreg.ByName(lineName(n))
	if p == nil {
		return nil, fmt.Errorf("periph: no line named %s", lineName(n))
	}
	if l.cache == nil {
		l.cache = make(map[uint32]gpio.PinIO)
	}
	l.cache[n] = p
	return p, nil
}

// GPIO implements core.GPIODriver over gpioreg
type GPIO struct {
	lines lines
}

// NewGPIO returns a driver resolving lines lazily on first use
func NewGPIO() *GPIO {
	return &GPIO{}
}

// ConfigurePin implements core.GPIODriver. Outputs start low.
func (g *GPIO) ConfigurePin(pin core.GPIOPin, mode core.PinMode) error {
	p, err := g.lines.get(uint32(pin))
	if err != nil {
		return err
	}
	switch mode {
	case core.Input:
		return p.In(gpio.Float, gpio.NoEdge)
	case core.InputPullUp:
		return p.In(gpio.PullUp, gpio.NoEdge)
	case core.InputPullDown:
		return p.In(gpio.PullDown, gpio.NoEdge)
	case core.Output:
		return p.Out(gpio.Low)
	default:
		return fmt.Errorf("periph: invalid mode %d", mode)
	}
}

// SetPin implements core.GPIODriver
func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	p, err := g.lines.get(uint32(pin))
	if err != nil {
		return err
	}
	return p.Out(gpio.Level(value))
}

// GetPin implements core.GPIODriver
func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	p, err := g.lines.get(uint32(pin))
	if err != nil {
		return false, err
	}
	return p.Read() == gpio.High, nil
}

// DefaultFrequency is the PWM carrier used when none is given
const DefaultFrequency = 1 * physic.KiloHertz

// PWM implements core.PWMDriver with duty values 0..max scaled onto
// gpio.DutyMax
type PWM struct {
	lines lines
	max   core.PWMValue
	freq  physic.Frequency
}

// NewPWM returns a PWM driver. Zero arguments pick 255 and DefaultFrequency.
func NewPWM(max core.PWMValue, freq physic.Frequency) *PWM {
	if max == 0 {
		max = 255
	}
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &PWM{max: max, freq: freq}
}

// ConfigurePWM implements core.PWMDriver. The line starts at 0% duty.
func (p *PWM) ConfigurePWM(pin core.PWMPin) error {
	line, err := p.lines.get(uint32(pin))
	if err != nil {
		return err
	}
	return line.PWM(0, p.freq)
}

// SetDutyCycle implements core.PWMDriver
func (p *PWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	if value > p.max {
		return fmt.Errorf("periph: duty %d above %d", value, p.max)
	}
	line, err := p.lines.get(uint32(pin))
	if err != nil {
		return err
	}
	duty := gpio.Duty(int64(value) * int64(gpio.DutyMax) / int64(p.max))
	return line.PWM(duty, p.freq)
}

// MaxValue implements core.PWMDriver
func (p *PWM) MaxValue() core.PWMValue {
	return p.max
}
