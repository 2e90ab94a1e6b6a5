// Cooperative polling scheduler
// One Run call samples the clock once and advances every tick, input,
// encoder and fading PWM channel by a single step.
package core

import "time"

const (
	// DefaultButtonDebounce is the input debounce window when none is configured
	DefaultButtonDebounce = 50 * time.Millisecond
	// DefaultEncoderDebounce is the encoder sampling window when none is configured
	DefaultEncoderDebounce = 1 * time.Millisecond
)

// Scheduler owns every registry and the pump state. It is not safe for
// concurrent use: register entities, then call Run from a single loop.
type Scheduler struct {
	clock Clock
	gpio  GPIODriver
	pwm   PWMDriver

	debug   DebugWriter
	onFault func(Fault)

	buttonDebounce  uint32
	encoderDebounce uint32

	running bool
	now     Timestamp

	ticks    []tick
	inputs   []input
	outputs  []output
	encoders []encoder
	channels []channel

	ring eventRing
}

// Option customises a Scheduler at construction time
type Option func(*Scheduler)

// WithDebugWriter sets the platform-specific debug output function
func WithDebugWriter(w DebugWriter) Option {
	return func(s *Scheduler) { s.debug = w }
}

// WithFaultHandler installs a callback for failures caught during Run
func WithFaultHandler(fn func(Fault)) Option {
	return func(s *Scheduler) { s.onFault = fn }
}

// WithButtonDebounce overrides the default input debounce window
func WithButtonDebounce(d time.Duration) Option {
	return func(s *Scheduler) { s.buttonDebounce = Millis(d) }
}

// WithEncoderDebounce overrides the default encoder sampling window
func WithEncoderDebounce(d time.Duration) Option {
	return func(s *Scheduler) { s.encoderDebounce = Millis(d) }
}

// New creates a scheduler bound to its I/O collaborators. pwm may be nil
// when the application registers no PWM channels.
func New(clock Clock, gpio GPIODriver, pwm PWMDriver, opts ...Option) (*Scheduler, error) {
	if clock == nil {
		return nil, newErr(InvalidParams, "new", "clock is required")
	}
	if gpio == nil {
		return nil, newErr(InvalidParams, "new", "gpio driver is required")
	}
	s := &Scheduler{
		clock:           clock,
		gpio:            gpio,
		pwm:             pwm,
		buttonDebounce:  Millis(DefaultButtonDebounce),
		encoderDebounce: Millis(DefaultEncoderDebounce),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Running reports whether the first Run call (baseline capture) happened
func (s *Scheduler) Running() bool {
	return s.running
}

// Now returns the clock reading taken by the latest Run call
func (s *Scheduler) Now() Timestamp {
	return s.now
}

// Run performs one pump pass. The first call only captures baselines so
// that the next call measures real elapsed time rather than time since boot.
func (s *Scheduler) Run() {
	now := s.clock.Now()
	s.now = now

	if !s.running {
		s.baseline(now)
		s.running = true
		s.debugln("[PUMP] baseline clock=" + utoa(uint32(now)))
		return
	}

	s.runTicks(now)
	s.runInputs(now)
	s.runEncoders(now)
	s.runFades(now)
}

// baseline snaps every timing field to now
func (s *Scheduler) baseline(now Timestamp) {
	for i := range s.ticks {
		s.ticks[i].lastFire = now
	}
	for i := range s.inputs {
		s.inputs[i].lastDebounce = now
	}
	for i := range s.encoders {
		s.baselineEncoder(&s.encoders[i], now)
	}
	for i := range s.channels {
		s.channels[i].lastFade = now
	}
}

// stamp returns the time a late registration should start its window
// from: the reading of the latest pass, so callbacks never read the clock
func (s *Scheduler) stamp() Timestamp {
	if !s.running {
		return 0
	}
	return s.now
}
