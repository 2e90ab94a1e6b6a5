// Package config loads YAML board descriptions and registers their
// entities on a core.Scheduler.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tweakly/core"
)

// Duration wraps time.Duration to support YAML unmarshalling from strings.
// A bare integer is read as milliseconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration strings like "50ms" or "1s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return fmt.Errorf("duration value node is nil")
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	if raw == "" {
		d.Duration = 0
		return nil
	}
	if ms, err := strconv.ParseUint(raw, 10, 32); err == nil {
		d.Duration = time.Duration(ms) * time.Millisecond
		return nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = dur
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Pin is a line number written either as a bare number or as "gpioN".
type Pin uint32

// ParsePin accepts "25", "gpio25" and "GPIO25".
func ParsePin(s string) (Pin, error) {
	raw := strings.TrimSpace(s)
	if len(raw) > 4 && strings.EqualFold(raw[:4], "gpio") {
		raw = raw[4:]
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pin name %q", s)
	}
	return Pin(n), nil
}

// UnmarshalYAML decodes a pin name or number.
func (p *Pin) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode pin: %w", err)
	}
	parsed, err := ParsePin(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Pin) String() string { return "gpio" + strconv.FormatUint(uint64(p), 10) }

// Board describes every entity a firmware image registers at setup.
type Board struct {
	Name            string    `yaml:"name"`
	ButtonDebounce  Duration  `yaml:"button_debounce"`
	EncoderDebounce Duration  `yaml:"encoder_debounce"`
	Inputs          []Input   `yaml:"inputs"`
	Outputs         []Output  `yaml:"outputs"`
	Encoders        []Encoder `yaml:"encoders"`
	PWM             []Channel `yaml:"pwm"`
	Ticks           []Tick    `yaml:"ticks"`
}

// Input is a debounced button line.
type Input struct {
	Pin      Pin      `yaml:"pin"`
	Mode     string   `yaml:"mode"`
	Level    *bool    `yaml:"level"` // idle level, defaults to high for input_pullup
	Debounce Duration `yaml:"debounce"`
}

// Output is a digital output line.
type Output struct {
	Pin   Pin    `yaml:"pin"`
	Level bool   `yaml:"level"`
	Class string `yaml:"class"`
}

// Encoder is a two-line rotary encoder.
type Encoder struct {
	Name     string   `yaml:"name"`
	Data     Pin      `yaml:"data"`
	Clock    Pin      `yaml:"clock"`
	Debounce Duration `yaml:"debounce"`
}

// Channel is a PWM output with fade bounds.
type Channel struct {
	Pin     Pin      `yaml:"pin"`
	Initial uint32   `yaml:"initial"`
	Min     uint32   `yaml:"min"`
	Max     uint32   `yaml:"max"`
	Class   string   `yaml:"class"`
	Delay   Duration `yaml:"delay"`
	Fade    string   `yaml:"fade"` // armed right after registration when set
}

// Tick is a periodic action. Action is one of toggle, toggle_class,
// fade or log.
type Tick struct {
	Name    string   `yaml:"name"`
	Every   Duration `yaml:"every"`
	Paused  bool     `yaml:"paused"`
	Action  string   `yaml:"action"`
	Pin     Pin      `yaml:"pin"`
	Class   string   `yaml:"class"`
	Mode    string   `yaml:"mode"`
	Message string   `yaml:"message"`
}

const (
	ActionToggle      = "toggle"
	ActionToggleClass = "toggle_class"
	ActionFade        = "fade"
	ActionLog         = "log"
)

// Load reads and validates a board file.
func Load(path string) (*Board, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a board description. JSON input is accepted too since it
// is valid YAML.
func Parse(raw []byte) (*Board, error) {
	var b Board
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("unmarshal board: %w", err)
	}
	applyDefaults(&b)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(b *Board) {
	if b.Name == "" {
		b.Name = "board"
	}
	if b.ButtonDebounce.Duration == 0 {
		b.ButtonDebounce.Duration = core.DefaultButtonDebounce
	}
	if b.EncoderDebounce.Duration == 0 {
		b.EncoderDebounce.Duration = core.DefaultEncoderDebounce
	}
	for i := range b.Inputs {
		if b.Inputs[i].Mode == "" {
			b.Inputs[i].Mode = core.InputPullUp.String()
		}
	}
	for i := range b.PWM {
		if b.PWM[i].Max == 0 && b.PWM[i].Min == 0 {
			b.PWM[i].Max = 255
		}
	}
}

// ParseMode maps the names produced by core.PinMode.String back to modes.
func ParseMode(name string) (core.PinMode, error) {
	for _, m := range []core.PinMode{core.Input, core.InputPullUp, core.InputPullDown, core.Output} {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown pin mode %q", name)
}

// Validate reports every problem in the board at once.
func (b *Board) Validate() error {
	var errs []error
	owner := make(map[Pin]string)
	claim := func(p Pin, what string) {
		if prev, ok := owner[p]; ok {
			errs = append(errs, fmt.Errorf("%s: %s already used by %s", what, p, prev))
			return
		}
		owner[p] = what
	}

	for i, in := range b.Inputs {
		what := fmt.Sprintf("inputs[%d]", i)
		mode, err := ParseMode(in.Mode)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
		} else if !mode.IsInput() {
			errs = append(errs, fmt.Errorf("%s: mode %s is not an input mode", what, in.Mode))
		}
		if in.Debounce.Duration < 0 {
			errs = append(errs, fmt.Errorf("%s: negative debounce", what))
		}
		claim(in.Pin, what)
	}
	outputs := make(map[Pin]bool)
	classes := make(map[string]bool)
	for i, out := range b.Outputs {
		claim(out.Pin, fmt.Sprintf("outputs[%d]", i))
		outputs[out.Pin] = true
		if out.Class != "" {
			classes[out.Class] = true
		}
	}
	for i, enc := range b.Encoders {
		what := fmt.Sprintf("encoders[%d]", i)
		if enc.Data == enc.Clock {
			errs = append(errs, fmt.Errorf("%s: data and clock share %s", what, enc.Data))
		}
		claim(enc.Data, what+".data")
		if enc.Data != enc.Clock {
			claim(enc.Clock, what+".clock")
		}
		if enc.Debounce.Duration < 0 {
			errs = append(errs, fmt.Errorf("%s: negative debounce", what))
		}
	}

	channels := make(map[Pin]bool)
	for i, ch := range b.PWM {
		what := fmt.Sprintf("pwm[%d]", i)
		if channels[ch.Pin] {
			errs = append(errs, fmt.Errorf("%s: channel %s declared twice", what, ch.Pin))
		}
		channels[ch.Pin] = true
		if ch.Min > ch.Max {
			errs = append(errs, fmt.Errorf("%s: min %d above max %d", what, ch.Min, ch.Max))
		} else if ch.Initial < ch.Min || ch.Initial > ch.Max {
			errs = append(errs, fmt.Errorf("%s: initial %d outside [%d,%d]", what, ch.Initial, ch.Min, ch.Max))
		}
		if ch.Delay.Duration < 0 {
			errs = append(errs, fmt.Errorf("%s: negative delay", what))
		}
		if ch.Fade != "" {
			if _, err := core.ParseFadeMode(ch.Fade); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", what, err))
			}
		}
	}

	names := make(map[string]bool)
	for i, t := range b.Ticks {
		what := fmt.Sprintf("ticks[%d]", i)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", what))
		} else if names[t.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate tick name %q", what, t.Name))
		}
		names[t.Name] = true
		if t.Every.Duration < 0 {
			errs = append(errs, fmt.Errorf("%s: negative period", what))
		}
		switch t.Action {
		case ActionToggle:
			if !outputs[t.Pin] {
				errs = append(errs, fmt.Errorf("%s: %s is not an output", what, t.Pin))
			}
		case ActionToggleClass:
			if !classes[t.Class] {
				errs = append(errs, fmt.Errorf("%s: no output carries class %q", what, t.Class))
			}
		case ActionFade:
			if !channels[t.Pin] {
				errs = append(errs, fmt.Errorf("%s: %s is not a pwm channel", what, t.Pin))
			}
			if _, err := core.ParseFadeMode(t.Mode); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", what, err))
			}
		case ActionLog:
		default:
			errs = append(errs, fmt.Errorf("%s: unknown action %q", what, t.Action))
		}
	}
	return errors.Join(errs...)
}

// Options returns the scheduler options the board's defaults imply.
func (b *Board) Options() []core.Option {
	return []core.Option{
		core.WithButtonDebounce(b.ButtonDebounce.Duration),
		core.WithEncoderDebounce(b.EncoderDebounce.Duration),
	}
}
