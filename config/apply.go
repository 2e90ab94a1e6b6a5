package config

import (
	"fmt"

	"tweakly/core"
)

// Actions are the hooks a board's declarative entities call into.
// Nil hooks are skipped.
type Actions struct {
	// Log receives the message of a "log" tick
	Log func(tick, message string)
	// Encoder receives every confirmed encoder step
	Encoder func(name string, direction bool)
	// Fault receives driver errors raised by tick actions
	Fault func(tick string, err error)
}

// Apply registers every entity of b on s, in file order: inputs, outputs,
// encoders, PWM channels, then ticks. It stops at the first failure.
func Apply(s *core.Scheduler, b *Board, acts Actions) error {
	for _, in := range b.Inputs {
		mode, err := ParseMode(in.Mode)
		if err != nil {
			return err
		}
		idle := mode == core.InputPullUp
		if in.Level != nil {
			idle = *in.Level
		}
		if _, err := s.RegisterInput(core.GPIOPin(in.Pin), mode, idle); err != nil {
			return fmt.Errorf("input %s: %w", in.Pin, err)
		}
		if in.Debounce.Duration > 0 {
			if err := s.SetDebounce(core.GPIOPin(in.Pin), in.Debounce.Duration); err != nil {
				return fmt.Errorf("input %s: %w", in.Pin, err)
			}
		}
	}

	for _, out := range b.Outputs {
		if _, err := s.RegisterOutput(core.GPIOPin(out.Pin), out.Level, out.Class); err != nil {
			return fmt.Errorf("output %s: %w", out.Pin, err)
		}
	}

	for _, enc := range b.Encoders {
		name := enc.Name
		id, err := s.RegisterEncoder(core.GPIOPin(enc.Data), core.GPIOPin(enc.Clock), func(dir bool) {
			if acts.Encoder != nil {
				acts.Encoder(name, dir)
			}
		})
		if err != nil {
			return fmt.Errorf("encoder %q: %w", name, err)
		}
		if enc.Debounce.Duration > 0 {
			if err := s.SetEncoderDebounce(id, enc.Debounce.Duration); err != nil {
				return fmt.Errorf("encoder %q: %w", name, err)
			}
		}
	}

	for _, ch := range b.PWM {
		pin := core.PWMPin(ch.Pin)
		if _, err := s.RegisterPWM(pin, core.PWMValue(ch.Initial), core.PWMValue(ch.Min), core.PWMValue(ch.Max), ch.Class); err != nil {
			return fmt.Errorf("pwm %s: %w", ch.Pin, err)
		}
		if ch.Delay.Duration > 0 {
			if err := s.SetFadeDelay(pin, ch.Delay.Duration); err != nil {
				return fmt.Errorf("pwm %s: %w", ch.Pin, err)
			}
		}
		if ch.Fade != "" {
			mode, err := core.ParseFadeMode(ch.Fade)
			if err != nil {
				return fmt.Errorf("pwm %s: %w", ch.Pin, err)
			}
			if err := s.Fade(pin, mode); err != nil {
				return fmt.Errorf("pwm %s: %w", ch.Pin, err)
			}
		}
	}

	for _, t := range b.Ticks {
		fn, err := tickAction(s, t, acts)
		if err != nil {
			return fmt.Errorf("tick %q: %w", t.Name, err)
		}
		if _, err := s.SetTick(t.Name, t.Every.Duration, fn); err != nil {
			return fmt.Errorf("tick %q: %w", t.Name, err)
		}
		if t.Paused {
			if err := s.PauseTick(t.Name); err != nil {
				return fmt.Errorf("tick %q: %w", t.Name, err)
			}
		}
	}
	return nil
}

func tickAction(s *core.Scheduler, t Tick, acts Actions) (func(), error) {
	name := t.Name
	report := func(err error) {
		if err != nil && acts.Fault != nil {
			acts.Fault(name, err)
		}
	}
	switch t.Action {
	case ActionToggle:
		pin := core.GPIOPin(t.Pin)
		return func() { report(s.Toggle(pin)) }, nil
	case ActionToggleClass:
		class := t.Class
		return func() { report(s.ToggleClass(class)) }, nil
	case ActionFade:
		mode, err := core.ParseFadeMode(t.Mode)
		if err != nil {
			return nil, err
		}
		pin := core.PWMPin(t.Pin)
		return func() { report(s.Fade(pin, mode)) }, nil
	case ActionLog:
		msg := t.Message
		return func() {
			if acts.Log != nil {
				acts.Log(name, msg)
			}
		}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", t.Action)
	}
}
