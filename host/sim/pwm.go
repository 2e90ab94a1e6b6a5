package sim

import (
	"fmt"
	"sync"

	"tweakly/core"
)

// DutyWrite records one SetDutyCycle call
type DutyWrite struct {
	At    core.Timestamp
	Pin   core.PWMPin
	Value core.PWMValue
}

// PWM is a bank of simulated PWM outputs
type PWM struct {
	mu         sync.Mutex
	clock      core.Clock
	max        core.PWMValue
	configured map[core.PWMPin]bool
	values     map[core.PWMPin]core.PWMValue
	faults     map[core.PWMPin]error
	writes     []DutyWrite

	// OnWrite, when set, observes every successful SetDutyCycle
	OnWrite func(DutyWrite)
}

// NewPWM creates a PWM bank accepting duty values up to max
func NewPWM(max core.PWMValue, clock core.Clock) *PWM {
	return &PWM{
		clock:      clock,
		max:        max,
		configured: make(map[core.PWMPin]bool),
		values:     make(map[core.PWMPin]core.PWMValue),
		faults:     make(map[core.PWMPin]error),
	}
}

// ConfigurePWM implements core.PWMDriver
func (p *PWM) ConfigurePWM(pin core.PWMPin) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.faults[pin]; err != nil {
		return err
	}
	p.configured[pin] = true
	return nil
}

// SetDutyCycle implements core.PWMDriver
func (p *PWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	p.mu.Lock()
	if err := p.faults[pin]; err != nil {
		p.mu.Unlock()
		return err
	}
	if !p.configured[pin] {
		p.mu.Unlock()
		return fmt.Errorf("pwm%d: not configured", pin)
	}
	if value > p.max {
		p.mu.Unlock()
		return fmt.Errorf("pwm%d: duty %d above %d", pin, value, p.max)
	}
	w := DutyWrite{Pin: pin, Value: value}
	if p.clock != nil {
		w.At = p.clock.Now()
	}
	p.values[pin] = value
	p.writes = append(p.writes, w)
	hook := p.OnWrite
	p.mu.Unlock()

	if hook != nil {
		hook(w)
	}
	return nil
}

// MaxValue implements core.PWMDriver
func (p *PWM) MaxValue() core.PWMValue {
	return p.max
}

// Fail makes every later access to pin return err. A nil err heals it.
func (p *PWM) Fail(pin core.PWMPin, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.faults, pin)
		return
	}
	p.faults[pin] = err
}

// Value returns the last duty written to pin
func (p *PWM) Value(pin core.PWMPin) core.PWMValue {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[pin]
}

// Writes returns a copy of the write log
func (p *PWM) Writes() []DutyWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]DutyWrite, len(p.writes))
	copy(out, p.writes)
	return out
}
