package core

import "time"

// ChannelID is the handle returned by RegisterPWM
type ChannelID int

// FadeMode selects how a fading channel moves between its bounds
type FadeMode uint8

const (
	// FadeOut steps down to min, then stops
	FadeOut FadeMode = iota
	// FadeIn steps up to max, then stops
	FadeIn
	// FadeAlways ping-pongs between min and max until stopped
	FadeAlways
)

func (m FadeMode) String() string {
	switch m {
	case FadeOut:
		return "out"
	case FadeIn:
		return "in"
	case FadeAlways:
		return "always"
	default:
		return "invalid"
	}
}

// ParseFadeMode maps a config name onto a FadeMode
func ParseFadeMode(name string) (FadeMode, error) {
	switch name {
	case "out":
		return FadeOut, nil
	case "in":
		return FadeIn, nil
	case "always", "pulse":
		return FadeAlways, nil
	}
	return 0, newErr(InvalidParams, "parse_fade_mode", name)
}

// channel is a PWM output that can run a timed fade
type channel struct {
	pin   PWMPin
	value PWMValue
	min   PWMValue
	max   PWMValue
	class string

	mode     FadeMode
	rising   bool
	enabled  bool
	delay    uint32 // ms between steps, 0 steps on every Run
	lastFade Timestamp
}

// ChannelInfo is a read-only snapshot of a PWM channel
type ChannelInfo struct {
	Pin    PWMPin
	Value  PWMValue
	Min    PWMValue
	Max    PWMValue
	Class  string
	Mode   FadeMode
	Rising bool
	Fading bool
	Delay  time.Duration
}

// RegisterPWM configures pin for PWM output and writes initial at once.
// The channel keeps its value within [min, max] while fading.
func (s *Scheduler) RegisterPWM(pin PWMPin, initial, min, max PWMValue, class ...string) (ChannelID, error) {
	if s.pwm == nil {
		return -1, newErr(Unsupported, "register_pwm", "no pwm driver")
	}
	if min > max {
		return -1, newErr(InvalidParams, "register_pwm", "min above max")
	}
	if initial < min || initial > max {
		return -1, newErr(InvalidParams, "register_pwm", "initial value out of bounds")
	}
	if max > s.pwm.MaxValue() {
		return -1, newErr(InvalidParams, "register_pwm", "max above driver range")
	}
	if s.findChannelIndex(pin) >= 0 {
		return -1, newErr(PinInUse, "register_pwm", "pin "+utoa(uint32(pin)))
	}
	if err := s.pwm.ConfigurePWM(pin); err != nil {
		return -1, wrapErr(InvalidParams, "register_pwm", err)
	}
	if err := s.pwm.SetDutyCycle(pin, initial); err != nil {
		return -1, wrapErr(InvalidParams, "register_pwm", err)
	}
	tag := ""
	if len(class) > 0 {
		tag = class[0]
	}
	s.channels = append(s.channels, channel{
		pin:    pin,
		value:  initial,
		min:    min,
		max:    max,
		class:  tag,
		rising: true,
	})
	return ChannelID(len(s.channels) - 1), nil
}

// WritePWM sets a channel value, clamped to its bounds. A running fade on
// the channel is stopped. Writing the cached value is a no-op.
func (s *Scheduler) WritePWM(pin PWMPin, value PWMValue) error {
	ch, err := s.findChannel("write_pwm", pin)
	if err != nil {
		return err
	}
	return s.writeChannel(ch, value)
}

// WritePWMAll sets every channel to value
func (s *Scheduler) WritePWMAll(value PWMValue) error {
	var first error
	for i := range s.channels {
		if err := s.writeChannel(&s.channels[i], value); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WritePWMClass sets every channel tagged with class to value
func (s *Scheduler) WritePWMClass(class string, value PWMValue) error {
	return s.eachChannelInClass("write_pwm_class", class, func(ch *channel) error {
		return s.writeChannel(ch, value)
	})
}

// Fade arms a fade on the channel. The first step happens once the
// channel's fade delay has elapsed from now.
func (s *Scheduler) Fade(pin PWMPin, mode FadeMode) error {
	if mode > FadeAlways {
		return newErr(InvalidParams, "fade", "mode "+mode.String())
	}
	ch, err := s.findChannel("fade", pin)
	if err != nil {
		return err
	}
	s.armFade(ch, mode)
	return nil
}

// FadeClass arms the same fade on every channel tagged with class
func (s *Scheduler) FadeClass(class string, mode FadeMode) error {
	if mode > FadeAlways {
		return newErr(InvalidParams, "fade_class", "mode "+mode.String())
	}
	return s.eachChannelInClass("fade_class", class, func(ch *channel) error {
		s.armFade(ch, mode)
		return nil
	})
}

// StopFade halts a fade, leaving the channel at its current value
func (s *Scheduler) StopFade(pin PWMPin) error {
	ch, err := s.findChannel("stop_fade", pin)
	if err != nil {
		return err
	}
	ch.enabled = false
	return nil
}

// SetFadeDelay sets the interval between fade steps of a channel
func (s *Scheduler) SetFadeDelay(pin PWMPin, d time.Duration) error {
	ms, err := checkDuration("set_fade_delay", d)
	if err != nil {
		return err
	}
	ch, err := s.findChannel("set_fade_delay", pin)
	if err != nil {
		return err
	}
	ch.delay = ms
	return nil
}

// PWM returns the current value of a channel
func (s *Scheduler) PWM(pin PWMPin) (PWMValue, error) {
	ch, err := s.findChannel("pwm", pin)
	if err != nil {
		return 0, err
	}
	return ch.value, nil
}

// Fading reports whether a fade is running on the channel
func (s *Scheduler) Fading(pin PWMPin) (bool, error) {
	ch, err := s.findChannel("fading", pin)
	if err != nil {
		return false, err
	}
	return ch.enabled, nil
}

// Channel returns a snapshot of the channel behind id
func (s *Scheduler) Channel(id ChannelID) (ChannelInfo, error) {
	if id < 0 || int(id) >= len(s.channels) {
		return ChannelInfo{}, newErr(NotFound, "channel", "bad handle")
	}
	ch := &s.channels[id]
	return ChannelInfo{
		Pin:    ch.pin,
		Value:  ch.value,
		Min:    ch.min,
		Max:    ch.max,
		Class:  ch.class,
		Mode:   ch.mode,
		Rising: ch.rising,
		Fading: ch.enabled,
		Delay:  time.Duration(ch.delay) * time.Millisecond,
	}, nil
}

func (s *Scheduler) armFade(ch *channel, mode FadeMode) {
	ch.mode = mode
	switch mode {
	case FadeIn:
		ch.rising = true
	case FadeOut:
		ch.rising = false
	case FadeAlways:
		ch.rising = ch.value < ch.max
	}
	ch.enabled = true
	ch.lastFade = s.stamp()
}

func (s *Scheduler) writeChannel(ch *channel, value PWMValue) error {
	ch.enabled = false
	value = clampValue(value, ch.min, ch.max)
	if value == ch.value {
		return nil
	}
	if err := s.pwm.SetDutyCycle(ch.pin, value); err != nil {
		return &E{C: CodeOf(err), Op: "write_pwm", Msg: "pin " + utoa(uint32(ch.pin)), Err: err}
	}
	ch.value = value
	return nil
}

func (s *Scheduler) eachChannelInClass(op, class string, fn func(*channel) error) error {
	if class == "" {
		return newErr(NotFound, op, "empty class")
	}
	var first error
	matched := false
	for i := range s.channels {
		ch := &s.channels[i]
		if ch.class != class {
			continue
		}
		matched = true
		if err := fn(ch); err != nil && first == nil {
			first = err
		}
	}
	if !matched {
		return newErr(NotFound, op, class)
	}
	return first
}

func (s *Scheduler) findChannelIndex(pin PWMPin) int {
	for i := range s.channels {
		if s.channels[i].pin == pin {
			return i
		}
	}
	return -1
}

func (s *Scheduler) findChannel(op string, pin PWMPin) (*channel, error) {
	if i := s.findChannelIndex(pin); i >= 0 {
		return &s.channels[i], nil
	}
	return nil, newErr(NotFound, op, "pwm pin "+utoa(uint32(pin)))
}

func clampValue(v, lo, hi PWMValue) PWMValue {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// runFades advances every enabled channel whose fade delay has elapsed
func (s *Scheduler) runFades(now Timestamp) {
	for i := range s.channels {
		ch := &s.channels[i]
		if !ch.enabled {
			continue
		}
		if ch.delay > 0 && Elapsed(now, ch.lastFade) <= ch.delay {
			continue
		}
		ch.lastFade = now
		s.stepFade(ch, now)
	}
}

// stepFade moves the channel one unit and writes the result. One-shot
// modes disable the channel on reaching their bound; a channel already
// sitting on the bound is disabled without a write. The cached value and
// direction only change once the driver accepted the write.
func (s *Scheduler) stepFade(ch *channel, now Timestamp) {
	value := clampValue(ch.value, ch.min, ch.max)
	rising := ch.rising

	switch ch.mode {
	case FadeIn:
		if value >= ch.max {
			ch.value = value
			s.finishFade(ch, now)
			return
		}
		value++
	case FadeOut:
		if value <= ch.min {
			ch.value = value
			s.finishFade(ch, now)
			return
		}
		value--
	case FadeAlways:
		if ch.min == ch.max {
			break
		}
		if rising {
			value++
			if value >= ch.max {
				rising = false
			}
		} else {
			value--
			if value <= ch.min {
				rising = true
			}
		}
	}

	if err := s.pwm.SetDutyCycle(ch.pin, value); err != nil {
		// On error, stop fading
		ch.enabled = false
		s.report(Fault{Kind: FaultFade, Pin: uint32(ch.pin), At: now, Err: err})
		return
	}
	ch.value = value
	ch.rising = rising

	if ch.mode == FadeIn && value >= ch.max || ch.mode == FadeOut && value <= ch.min {
		s.finishFade(ch, now)
	}
}

func (s *Scheduler) finishFade(ch *channel, now Timestamp) {
	ch.enabled = false
	s.ring.record(EvtFadeDone, uint32(ch.pin), now, uint32(ch.value))
}
