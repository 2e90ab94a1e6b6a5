package sim

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"tweakly/config"
	"tweakly/core"
)

// Scenario scripts a simulated run: the pump is called every Step ms from
// Start until Start+Until, and each Step entry is applied once the
// relative time reaches its At.
type Scenario struct {
	Start uint32 `yaml:"start"`
	Until uint32 `yaml:"until"`
	Step  uint32 `yaml:"step"`
	Steps []Step `yaml:"steps"`
}

// Step is one scripted stimulus. Several fields may be set at once; they
// apply in the order set, pause, resume, write, fade.
type Step struct {
	At     uint32          `yaml:"at"`
	Set    map[string]bool `yaml:"set"`
	Pause  string          `yaml:"pause"`
	Resume string          `yaml:"resume"`
	Write  *Write          `yaml:"write"`
	Fade   *FadeStep       `yaml:"fade"`
}

// Write is an application write: a digital level or a PWM value, to a pin
// or to every entity carrying Class.
type Write struct {
	Pin   string  `yaml:"pin"`
	Class string  `yaml:"class"`
	Level *bool   `yaml:"level"`
	Value *uint32 `yaml:"value"`
}

// FadeStep arms or stops a fade. Mode "stop" stops it.
type FadeStep struct {
	Pin   string `yaml:"pin"`
	Class string `yaml:"class"`
	Mode  string `yaml:"mode"`
}

// LoadScenario reads a scenario file
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes and validates a scenario. Steps are sorted by At,
// keeping file order for equal times.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}
	if sc.Step == 0 {
		sc.Step = 1
	}
	sort.SliceStable(sc.Steps, func(i, j int) bool { return sc.Steps[i].At < sc.Steps[j].At })
	if sc.Until == 0 && len(sc.Steps) > 0 {
		sc.Until = sc.Steps[len(sc.Steps)-1].At + 1000
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	var errs []error
	for i, st := range sc.Steps {
		what := fmt.Sprintf("steps[%d]", i)
		if st.At > sc.Until {
			errs = append(errs, fmt.Errorf("%s: at %d is past until %d", what, st.At, sc.Until))
		}
		for name := range st.Set {
			if _, err := config.ParsePin(name); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", what, err))
			}
		}
		if w := st.Write; w != nil {
			if (w.Pin == "") == (w.Class == "") {
				errs = append(errs, fmt.Errorf("%s: write needs exactly one of pin or class", what))
			}
			if (w.Level == nil) == (w.Value == nil) {
				errs = append(errs, fmt.Errorf("%s: write needs exactly one of level or value", what))
			}
			if w.Pin != "" {
				if _, err := config.ParsePin(w.Pin); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", what, err))
				}
			}
		}
		if f := st.Fade; f != nil {
			if (f.Pin == "") == (f.Class == "") {
				errs = append(errs, fmt.Errorf("%s: fade needs exactly one of pin or class", what))
			}
			if f.Mode == "stop" && f.Class != "" {
				errs = append(errs, fmt.Errorf("%s: stop applies to a single pin", what))
			} else if f.Mode != "stop" {
				if _, err := core.ParseFadeMode(f.Mode); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", what, err))
				}
			}
			if f.Pin != "" {
				if _, err := config.ParsePin(f.Pin); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", what, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}
