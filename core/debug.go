package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// FaultKind names the registry an entity failure came from
type FaultKind uint8

const (
	FaultTick FaultKind = iota + 1
	FaultInput
	FaultEncoder
	FaultFade
)

func (k FaultKind) String() string {
	switch k {
	case FaultTick:
		return "tick"
	case FaultInput:
		return "input"
	case FaultEncoder:
		return "encoder"
	case FaultFade:
		return "fade"
	default:
		return "unknown"
	}
}

// Fault describes a failure caught at an entity boundary during Run.
// The pump keeps going; the fault is only reported.
type Fault struct {
	Kind FaultKind
	Name string // tick name, empty for pin based entities
	Pin  uint32
	At   Timestamp
	Err  error
}

// PanicError wraps a value recovered from a panicking callback
type PanicError struct {
	Value interface{}
}

func (p *PanicError) Error() string {
	switch v := p.Value.(type) {
	case error:
		return "callback panic: " + v.Error()
	case string:
		return "callback panic: " + v
	default:
		return "callback panic"
	}
}

// Event type codes for the post-mortem ring
const (
	EvtTickFire     = 1 // tick callback invoked
	EvtSwitchToggle = 2 // debounced press latched a switch
	EvtRelease      = 3 // debounced release committed
	EvtEncoderStep  = 4 // encoder callback invoked
	EvtFadeDone     = 5 // one-shot fade reached its bound
	EvtFault        = 6 // entity failure reported
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

// Event captures one notable pump action
type Event struct {
	Type  uint8
	Pin   uint32
	Clock Timestamp
	Value uint32
}

// eventRing is a fixed-size, allocation-free history of pump events
type eventRing struct {
	buf  [EventRingSize]Event
	head uint8
}

func (r *eventRing) record(typ uint8, pin uint32, clock Timestamp, value uint32) {
	idx := r.head
	r.buf[idx] = Event{Type: typ, Pin: pin, Clock: clock, Value: value}
	r.head = (idx + 1) % EventRingSize
}

// snapshot returns the recorded events, oldest first
func (r *eventRing) snapshot() []Event {
	out := make([]Event, 0, EventRingSize)
	start := r.head
	for i := uint8(0); i < EventRingSize; i++ {
		evt := r.buf[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

func (r *eventRing) clear() {
	for i := range r.buf {
		r.buf[i] = Event{}
	}
	r.head = 0
}

// EventName returns a short label for an event type
func EventName(typ uint8) string {
	switch typ {
	case EvtTickFire:
		return "TICK_FIRE"
	case EvtSwitchToggle:
		return "SWITCH"
	case EvtRelease:
		return "RELEASE"
	case EvtEncoderStep:
		return "ENCODER"
	case EvtFadeDone:
		return "FADE_DONE"
	case EvtFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// Events returns the recent pump history, oldest first
func (s *Scheduler) Events() []Event {
	return s.ring.snapshot()
}

// ClearEvents empties the pump history
func (s *Scheduler) ClearEvents() {
	s.ring.clear()
}

// DumpEvents writes the pump history through the debug writer
func (s *Scheduler) DumpEvents() {
	s.debugln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range s.ring.snapshot() {
		s.debugln("[EVENTS] " + EventName(evt.Type) +
			" pin=" + utoa(evt.Pin) +
			" clock=" + utoa(uint32(evt.Clock)) +
			" v=" + utoa(evt.Value))
	}
	s.debugln("[EVENTS] === End Dump ===")
}

func (s *Scheduler) debugln(msg string) {
	if s.debug != nil {
		s.debug(msg)
	}
}

// report forwards a caught entity failure to the fault handler and the
// debug writer, and records it in the ring
func (s *Scheduler) report(f Fault) {
	s.ring.record(EvtFault, f.Pin, f.At, uint32(f.Kind))
	msg := "[FAULT] " + f.Kind.String()
	if f.Name != "" {
		msg += " name=" + f.Name
	} else {
		msg += " pin=" + utoa(f.Pin)
	}
	if f.Err != nil {
		msg += " err=" + f.Err.Error()
	}
	s.debugln(msg)
	if s.onFault != nil {
		s.onFault(f)
	}
}

// guard runs fn and converts a panic into an error, so one failing
// callback cannot stop the rest of the pump pass
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	fn()
	return nil
}
