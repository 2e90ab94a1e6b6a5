package core

import "time"

// TickID is the handle returned by SetTick
type TickID int

// tick is a named periodic software timer
type tick struct {
	name     string
	delay    uint32 // ms
	enabled  bool
	lastFire Timestamp
	fn       func()
}

// TickInfo is a read-only snapshot of a registered tick
type TickInfo struct {
	Name     string
	Delay    time.Duration
	Enabled  bool
	LastFire Timestamp
}

// SetTick registers a periodic callback. The tick starts enabled; its first
// window opens at the baseline capture of the first Run call (or now, when
// the pump is already running). Names need not be unique.
func (s *Scheduler) SetTick(name string, delay time.Duration, fn func()) (TickID, error) {
	if name == "" {
		return -1, newErr(InvalidParams, "set_tick", "empty name")
	}
	if fn == nil {
		return -1, newErr(InvalidParams, "set_tick", "nil callback")
	}
	ms, err := checkDuration("set_tick", delay)
	if err != nil {
		return -1, err
	}
	s.ticks = append(s.ticks, tick{
		name:     name,
		delay:    ms,
		enabled:  true,
		lastFire: s.stamp(),
		fn:       fn,
	})
	return TickID(len(s.ticks) - 1), nil
}

// PauseTick disables every tick registered under name
func (s *Scheduler) PauseTick(name string) error {
	return s.setTickEnabled("pause_tick", name, false)
}

// ResumeTick re-enables every tick registered under name. A tick keeps its
// last firing time while paused, so it fires on the next pass if its delay
// already elapsed.
func (s *Scheduler) ResumeTick(name string) error {
	return s.setTickEnabled("resume_tick", name, true)
}

func (s *Scheduler) setTickEnabled(op, name string, enabled bool) error {
	found := false
	for i := range s.ticks {
		if s.ticks[i].name == name {
			s.ticks[i].enabled = enabled
			found = true
		}
	}
	if !found {
		return newErr(NotFound, op, name)
	}
	return nil
}

// TickRunning reports the enabled state of the first tick named name
func (s *Scheduler) TickRunning(name string) (bool, error) {
	for i := range s.ticks {
		if s.ticks[i].name == name {
			return s.ticks[i].enabled, nil
		}
	}
	return false, newErr(NotFound, "tick_running", name)
}

// Tick returns a snapshot of the tick behind id
func (s *Scheduler) Tick(id TickID) (TickInfo, error) {
	if id < 0 || int(id) >= len(s.ticks) {
		return TickInfo{}, newErr(NotFound, "tick", "bad handle")
	}
	t := &s.ticks[id]
	return TickInfo{
		Name:     t.name,
		Delay:    time.Duration(t.delay) * time.Millisecond,
		Enabled:  t.enabled,
		LastFire: t.lastFire,
	}, nil
}

// runTicks fires every enabled tick whose delay has strictly elapsed.
// Disabled ticks are skipped without touching lastFire.
func (s *Scheduler) runTicks(now Timestamp) {
	for i := range s.ticks {
		t := &s.ticks[i]
		if !t.enabled {
			continue
		}
		if Elapsed(now, t.lastFire) <= t.delay {
			continue
		}
		t.lastFire = now
		s.ring.record(EvtTickFire, uint32(i), now, t.delay)
		if err := guard(t.fn); err != nil {
			s.report(Fault{Kind: FaultTick, Name: t.name, Pin: uint32(i), At: now, Err: err})
		}
	}
}
