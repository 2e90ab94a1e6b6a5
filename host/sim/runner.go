package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"tweakly/config"
	"tweakly/core"
)

// Runner drives a scheduler through a scenario on simulated time
type Runner struct {
	Scheduler *core.Scheduler
	Clock     *Clock
	GPIO      *GPIO
	Log       zerolog.Logger
}

// Stats summarises a finished run
type Stats struct {
	Passes int
	Steps  int
	End    core.Timestamp
}

// Run sets the clock, applies due steps and pumps once per scenario step
// until the end time or until ctx is cancelled. A step that the scheduler
// rejects aborts the run.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (Stats, error) {
	var st Stats
	next := 0
	for rel := uint64(0); rel <= uint64(sc.Until); rel += uint64(sc.Step) {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		now := sc.Start + uint32(rel)
		r.Clock.Set(now)
		for next < len(sc.Steps) && uint64(sc.Steps[next].At) <= rel {
			if err := r.apply(&sc.Steps[next]); err != nil {
				return st, fmt.Errorf("step at %d: %w", sc.Steps[next].At, err)
			}
			next++
			st.Steps++
		}
		r.Scheduler.Run()
		st.Passes++
		st.End = core.Timestamp(now)
	}
	r.Log.Info().
		Int("passes", st.Passes).
		Int("steps", st.Steps).
		Uint32("end", uint32(st.End)).
		Msg("scenario finished")
	return st, nil
}

func (r *Runner) apply(step *Step) error {
	pins := make([]string, 0, len(step.Set))
	for name := range step.Set {
		pins = append(pins, name)
	}
	sort.Strings(pins)
	for _, name := range pins {
		pin, err := config.ParsePin(name)
		if err != nil {
			return err
		}
		if err := r.GPIO.Drive(core.GPIOPin(pin), step.Set[name]); err != nil {
			return err
		}
	}
	if step.Pause != "" {
		if err := r.Scheduler.PauseTick(step.Pause); err != nil {
			return err
		}
	}
	if step.Resume != "" {
		if err := r.Scheduler.ResumeTick(step.Resume); err != nil {
			return err
		}
	}
	if step.Write != nil {
		if err := r.write(step.Write); err != nil {
			return err
		}
	}
	if step.Fade != nil {
		if err := r.fade(step.Fade); err != nil {
			return err
		}
	}
	r.Log.Debug().
		Uint32("at", step.At).
		Int("set", len(pins)).
		Str("pause", step.Pause).
		Str("resume", step.Resume).
		Bool("write", step.Write != nil).
		Bool("fade", step.Fade != nil).
		Msg("step applied")
	return nil
}

func (r *Runner) write(w *Write) error {
	s := r.Scheduler
	if w.Class != "" {
		if w.Level != nil {
			return s.WriteClass(w.Class, *w.Level)
		}
		return s.WritePWMClass(w.Class, core.PWMValue(*w.Value))
	}
	pin, err := config.ParsePin(w.Pin)
	if err != nil {
		return err
	}
	if w.Level != nil {
		return s.Write(core.GPIOPin(pin), *w.Level)
	}
	return s.WritePWM(core.PWMPin(pin), core.PWMValue(*w.Value))
}

func (r *Runner) fade(f *FadeStep) error {
	s := r.Scheduler
	if f.Mode == "stop" {
		pin, err := config.ParsePin(f.Pin)
		if err != nil {
			return err
		}
		return s.StopFade(core.PWMPin(pin))
	}
	mode, err := core.ParseFadeMode(f.Mode)
	if err != nil {
		return err
	}
	if f.Class != "" {
		return s.FadeClass(f.Class, mode)
	}
	pin, err := config.ParsePin(f.Pin)
	if err != nil {
		return err
	}
	return s.Fade(core.PWMPin(pin), mode)
}
