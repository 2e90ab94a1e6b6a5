package core

import (
	"errors"
	"testing"
)

// fakeClock is a manually advanced millisecond clock
type fakeClock struct {
	t Timestamp
}

func (c *fakeClock) Now() Timestamp { return c.t }

type pinWrite struct {
	pin   GPIOPin
	value bool
}

// fakeGPIO is a test implementation of GPIODriver
type fakeGPIO struct {
	levels  map[GPIOPin]bool
	modes   map[GPIOPin]PinMode
	writes  []pinWrite
	reads   int
	badPins map[GPIOPin]bool
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{
		levels:  make(map[GPIOPin]bool),
		modes:   make(map[GPIOPin]PinMode),
		badPins: make(map[GPIOPin]bool),
	}
}

var errBadPin = errors.New("fake: bad pin")

func (g *fakeGPIO) ConfigurePin(pin GPIOPin, mode PinMode) error {
	if pin >= 30 {
		return errBadPin
	}
	g.modes[pin] = mode
	return nil
}

func (g *fakeGPIO) SetPin(pin GPIOPin, value bool) error {
	if g.badPins[pin] {
		return errBadPin
	}
	g.levels[pin] = value
	g.writes = append(g.writes, pinWrite{pin, value})
	return nil
}

func (g *fakeGPIO) GetPin(pin GPIOPin) (bool, error) {
	g.reads++
	if g.badPins[pin] {
		return false, errBadPin
	}
	return g.levels[pin], nil
}

type pwmWrite struct {
	pin   PWMPin
	value PWMValue
}

// fakePWM is a test implementation of PWMDriver
type fakePWM struct {
	writes  []pwmWrite
	badPins map[PWMPin]bool
}

func newFakePWM() *fakePWM {
	return &fakePWM{badPins: make(map[PWMPin]bool)}
}

func (p *fakePWM) ConfigurePWM(pin PWMPin) error {
	if pin >= 30 {
		return errBadPin
	}
	return nil
}

func (p *fakePWM) SetDutyCycle(pin PWMPin, value PWMValue) error {
	if p.badPins[pin] {
		return errBadPin
	}
	p.writes = append(p.writes, pwmWrite{pin, value})
	return nil
}

func (p *fakePWM) MaxValue() PWMValue { return 255 }

// rig bundles a scheduler with its fakes
type rig struct {
	s     *Scheduler
	clock *fakeClock
	gpio  *fakeGPIO
	pwm   *fakePWM
	fault []Fault
}

func newRig(t *testing.T, opts ...Option) *rig {
	t.Helper()
	r := &rig{clock: &fakeClock{}, gpio: newFakeGPIO(), pwm: newFakePWM()}
	opts = append([]Option{WithFaultHandler(func(f Fault) { r.fault = append(r.fault, f) })}, opts...)
	s, err := New(r.clock, r.gpio, r.pwm, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.s = s
	return r
}

// at sets the clock and runs one pump pass
func (r *rig) at(ms uint32) {
	r.clock.t = Timestamp(ms)
	r.s.Run()
}
