package core

// OutputID is the handle returned by RegisterOutput
type OutputID int

// output is a digital output line with a cached level
type output struct {
	pin   GPIOPin
	level bool
	class string // empty means untagged
}

// RegisterOutput configures pin as an output and drives it to level.
// class is an optional group tag for WriteClass; pass "" for none.
func (s *Scheduler) RegisterOutput(pin GPIOPin, level bool, class string) (OutputID, error) {
	if s.pinTaken(pin) {
		return -1, newErr(PinInUse, "register_output", "pin "+utoa(uint32(pin)))
	}
	if err := s.gpio.ConfigurePin(pin, Output); err != nil {
		return -1, wrapErr(InvalidParams, "register_output", err)
	}
	if err := s.gpio.SetPin(pin, level); err != nil {
		return -1, wrapErr(InvalidParams, "register_output", err)
	}
	s.outputs = append(s.outputs, output{pin: pin, level: level, class: class})
	return OutputID(len(s.outputs) - 1), nil
}

// Write drives an output line, skipping the hardware write when the cached
// level already matches
func (s *Scheduler) Write(pin GPIOPin, level bool) error {
	out, err := s.findOutput("write", pin)
	if err != nil {
		return err
	}
	return s.writeOutput(out, level)
}

// Toggle inverts an output line
func (s *Scheduler) Toggle(pin GPIOPin) error {
	out, err := s.findOutput("toggle", pin)
	if err != nil {
		return err
	}
	return s.writeOutput(out, !out.level)
}

// Output returns the cached level of an output line
func (s *Scheduler) Output(pin GPIOPin) (bool, error) {
	out, err := s.findOutput("output", pin)
	if err != nil {
		return false, err
	}
	return out.level, nil
}

// ToggleAll inverts every registered output. Every line is attempted; the
// first driver error is returned.
func (s *Scheduler) ToggleAll() error {
	var first error
	for i := range s.outputs {
		out := &s.outputs[i]
		if err := s.writeOutput(out, !out.level); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteAll drives every registered output to level
func (s *Scheduler) WriteAll(level bool) error {
	var first error
	for i := range s.outputs {
		if err := s.writeOutput(&s.outputs[i], level); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteClass drives every output tagged with class to level. Untagged
// outputs never match; NotFound is returned when no output carries class.
func (s *Scheduler) WriteClass(class string, level bool) error {
	if class == "" {
		return newErr(NotFound, "write_class", "empty class")
	}
	var first error
	matched := false
	for i := range s.outputs {
		out := &s.outputs[i]
		if out.class != class {
			continue
		}
		matched = true
		if err := s.writeOutput(out, level); err != nil && first == nil {
			first = err
		}
	}
	if !matched {
		return newErr(NotFound, "write_class", class)
	}
	return first
}

// ToggleClass inverts every output tagged with class
func (s *Scheduler) ToggleClass(class string) error {
	if class == "" {
		return newErr(NotFound, "toggle_class", "empty class")
	}
	var first error
	matched := false
	for i := range s.outputs {
		out := &s.outputs[i]
		if out.class != class {
			continue
		}
		matched = true
		if err := s.writeOutput(out, !out.level); err != nil && first == nil {
			first = err
		}
	}
	if !matched {
		return newErr(NotFound, "toggle_class", class)
	}
	return first
}

// writeOutput is the single coalescing write path. The cache only changes
// when the driver accepted the write.
func (s *Scheduler) writeOutput(out *output, level bool) error {
	if out.level == level {
		return nil
	}
	if err := s.gpio.SetPin(out.pin, level); err != nil {
		return &E{C: CodeOf(err), Op: "write", Msg: "pin " + utoa(uint32(out.pin)), Err: err}
	}
	out.level = level
	return nil
}

func (s *Scheduler) findOutputIndex(pin GPIOPin) int {
	for i := range s.outputs {
		if s.outputs[i].pin == pin {
			return i
		}
	}
	return -1
}

func (s *Scheduler) findOutput(op string, pin GPIOPin) (*output, error) {
	if i := s.findOutputIndex(pin); i >= 0 {
		return &s.outputs[i], nil
	}
	return nil, s.missing(op, pin)
}
