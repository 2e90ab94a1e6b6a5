package sim

import (
	"fmt"
	"sync"

	"tweakly/core"
)

// PinWrite records one SetPin call that reached the bank
type PinWrite struct {
	At    core.Timestamp
	Pin   core.GPIOPin
	Level bool
}

// GPIO is a bank of simulated lines. Inputs are driven from the outside
// with Drive; outputs are recorded.
type GPIO struct {
	mu     sync.Mutex
	clock  core.Clock
	levels map[core.GPIOPin]bool
	modes  map[core.GPIOPin]core.PinMode
	faults map[core.GPIOPin]error
	writes []PinWrite
	lines  uint32

	// OnWrite, when set, observes every successful SetPin
	OnWrite func(PinWrite)
}

// NewGPIO creates a bank of n lines (0..n-1). Writes are stamped with clock,
// which may be nil.
func NewGPIO(n uint32, clock core.Clock) *GPIO {
	return &GPIO{
		clock:  clock,
		levels: make(map[core.GPIOPin]bool),
		modes:  make(map[core.GPIOPin]core.PinMode),
		faults: make(map[core.GPIOPin]error),
		lines:  n,
	}
}

func (g *GPIO) check(pin core.GPIOPin) error {
	if uint32(pin) >= g.lines {
		return fmt.Errorf("gpio%d: no such line", pin)
	}
	return g.faults[pin]
}

// ConfigurePin implements core.GPIODriver. Pull modes set the idle level
// of an undriven line.
func (g *GPIO) ConfigurePin(pin core.GPIOPin, mode core.PinMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check(pin); err != nil {
		return err
	}
	if !mode.Valid() {
		return fmt.Errorf("gpio%d: invalid mode %d", pin, mode)
	}
	g.modes[pin] = mode
	if _, driven := g.levels[pin]; !driven {
		g.levels[pin] = mode == core.InputPullUp
	}
	return nil
}

// SetPin implements core.GPIODriver
func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	if err := g.check(pin); err != nil {
		g.mu.Unlock()
		return err
	}
	if g.modes[pin] != core.Output {
		g.mu.Unlock()
		return fmt.Errorf("gpio%d: not configured as output", pin)
	}
	w := PinWrite{Pin: pin, Level: value}
	if g.clock != nil {
		w.At = g.clock.Now()
	}
	g.levels[pin] = value
	g.writes = append(g.writes, w)
	hook := g.OnWrite
	g.mu.Unlock()

	if hook != nil {
		hook(w)
	}
	return nil
}

// GetPin implements core.GPIODriver
func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check(pin); err != nil {
		return false, err
	}
	return g.levels[pin], nil
}

// Drive sets the level an input line reads back
func (g *GPIO) Drive(pin core.GPIOPin, level bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if uint32(pin) >= g.lines {
		return fmt.Errorf("gpio%d: no such line", pin)
	}
	if g.modes[pin] == core.Output {
		return fmt.Errorf("gpio%d: cannot drive an output", pin)
	}
	g.levels[pin] = level
	return nil
}

// Fail makes every later access to pin return err. A nil err heals the line.
func (g *GPIO) Fail(pin core.GPIOPin, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.faults, pin)
		return
	}
	g.faults[pin] = err
}

// Level returns the current level of a line
func (g *GPIO) Level(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

// Mode returns the configured mode of a line and whether it was configured
func (g *GPIO) Mode(pin core.GPIOPin) (core.PinMode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.modes[pin]
	return m, ok
}

// Writes returns a copy of the write log
func (g *GPIO) Writes() []PinWrite {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PinWrite, len(g.writes))
	copy(out, g.writes)
	return out
}
