package core

import "time"

// InputID is the handle returned by RegisterInput
type InputID int

// input is a debounced digital line with momentary and latching views
type input struct {
	pin  GPIOPin
	mode PinMode
	idle bool // rest level given at registration

	raw       bool
	prevRaw   bool
	debounced bool

	switchStatus bool // latched, flips on each confirmed press
	pressed      bool // confirmed press not yet released
	releaseArmed bool // raw change seen since the last commit

	window       uint32 // ms
	lastDebounce Timestamp
}

// pressedLevel is the line level that counts as "pressed": the opposite
// of the idle level
func (in *input) pressedLevel() bool {
	return !in.idle
}

// PinMode registers a digital line in one call: Output goes to the output
// registry (level is written at once), input modes go to the debounced
// input registry (level is the idle level).
// The optional class tag only applies to outputs.
func (s *Scheduler) PinMode(pin GPIOPin, mode PinMode, level bool, class ...string) error {
	if mode == Output {
		tag := ""
		if len(class) > 0 {
			tag = class[0]
		}
		_, err := s.RegisterOutput(pin, level, tag)
		return err
	}
	_, err := s.RegisterInput(pin, mode, level)
	return err
}

// RegisterInput configures pin as a debounced input. level is the idle line
// level; the opposite level counts as pressed.
func (s *Scheduler) RegisterInput(pin GPIOPin, mode PinMode, level bool) (InputID, error) {
	if !mode.IsInput() {
		return -1, newErr(InvalidParams, "register_input", "mode "+mode.String())
	}
	if s.pinTaken(pin) {
		return -1, newErr(PinInUse, "register_input", "pin "+utoa(uint32(pin)))
	}
	if err := s.gpio.ConfigurePin(pin, mode); err != nil {
		return -1, wrapErr(InvalidParams, "register_input", err)
	}
	s.inputs = append(s.inputs, input{
		pin:          pin,
		mode:         mode,
		idle:         level,
		raw:          level,
		prevRaw:      level,
		debounced:    level,
		window:       s.buttonDebounce,
		lastDebounce: s.stamp(),
	})
	return InputID(len(s.inputs) - 1), nil
}

// SetDebounce overrides the debounce window of an input line
func (s *Scheduler) SetDebounce(pin GPIOPin, d time.Duration) error {
	ms, err := checkDuration("set_debounce", d)
	if err != nil {
		return err
	}
	in, err := s.findInput("set_debounce", pin)
	if err != nil {
		return err
	}
	in.window = ms
	return nil
}

// PushButton reports the momentary view: true from a debounce-confirmed
// press until the line starts changing again.
func (s *Scheduler) PushButton(pin GPIOPin) (bool, error) {
	in, err := s.findInput("push_button", pin)
	if err != nil {
		return false, err
	}
	return in.pressed && !in.releaseArmed, nil
}

// SwitchButton reports the latched view, flipped once per confirmed press.
// The value only changes at a debounce commit, so it is always settled.
func (s *Scheduler) SwitchButton(pin GPIOPin) (bool, error) {
	in, err := s.findInput("switch_button", pin)
	if err != nil {
		return false, err
	}
	return in.switchStatus, nil
}

// Level returns the last debounced line level
func (s *Scheduler) Level(pin GPIOPin) (bool, error) {
	in, err := s.findInput("level", pin)
	if err != nil {
		return false, err
	}
	return in.debounced, nil
}

func (s *Scheduler) findInput(op string, pin GPIOPin) (*input, error) {
	for i := range s.inputs {
		if s.inputs[i].pin == pin {
			return &s.inputs[i], nil
		}
	}
	return nil, s.missing(op, pin)
}

// runInputs samples every input once and advances its debounce state.
// A raw change restarts the window and arms the next commit; a level that
// stayed put for longer than the window is committed, and an armed commit
// either latches a press or records the release.
func (s *Scheduler) runInputs(now Timestamp) {
	for i := range s.inputs {
		in := &s.inputs[i]
		level, err := s.gpio.GetPin(in.pin)
		if err != nil {
			s.report(Fault{Kind: FaultInput, Pin: uint32(in.pin), At: now, Err: err})
			continue
		}
		in.raw = level

		if level != in.prevRaw {
			in.lastDebounce = now
			in.releaseArmed = true
		} else if Elapsed(now, in.lastDebounce) > in.window {
			in.lastDebounce = now
			in.debounced = level
			if in.releaseArmed {
				in.releaseArmed = false
				if level == in.pressedLevel() {
					in.switchStatus = !in.switchStatus
					in.pressed = true
					s.ring.record(EvtSwitchToggle, uint32(in.pin), now, b2u(in.switchStatus))
				} else {
					in.pressed = false
					s.ring.record(EvtRelease, uint32(in.pin), now, 0)
				}
			}
		}

		in.prevRaw = level
	}
}
