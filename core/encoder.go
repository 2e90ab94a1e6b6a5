package core

import "time"

// EncoderID is the handle returned by RegisterEncoder
type EncoderID int

// encoder decodes a rotary encoder from its clock (CLK/A) and data (DT/B)
// lines using the rising clock edge only
type encoder struct {
	dataPin  GPIOPin
	clockPin GPIOPin

	dataStatus      bool
	clockStatus     bool
	prevClockStatus bool

	window       uint32 // ms
	lastDebounce Timestamp

	fn func(bool)
}

// EncoderInfo is a read-only snapshot of a registered encoder
type EncoderInfo struct {
	DataPin  GPIOPin
	ClockPin GPIOPin
	Window   time.Duration
	Clock    bool // last sampled clock level
	Data     bool // data level passed to the latest callback
}

// RegisterEncoder configures both lines as plain inputs and registers fn to
// be called with the data level on every confirmed rising clock edge.
func (s *Scheduler) RegisterEncoder(dataPin, clockPin GPIOPin, fn func(bool)) (EncoderID, error) {
	if fn == nil {
		return -1, newErr(InvalidParams, "register_encoder", "nil callback")
	}
	if dataPin == clockPin {
		return -1, newErr(InvalidParams, "register_encoder", "data and clock share pin "+utoa(uint32(dataPin)))
	}
	pins := [2]GPIOPin{dataPin, clockPin}
	for _, pin := range pins {
		if s.pinTaken(pin) {
			return -1, newErr(PinInUse, "register_encoder", "pin "+utoa(uint32(pin)))
		}
	}
	for _, pin := range pins {
		if err := s.gpio.ConfigurePin(pin, Input); err != nil {
			return -1, wrapErr(InvalidParams, "register_encoder", err)
		}
	}
	s.encoders = append(s.encoders, encoder{
		dataPin:  dataPin,
		clockPin: clockPin,
		window:   s.encoderDebounce,
		fn:       fn,
	})
	id := EncoderID(len(s.encoders) - 1)
	if s.running {
		s.baselineEncoder(&s.encoders[id], s.clock.Now())
	}
	return id, nil
}

// SetEncoderDebounce overrides the sampling window of an encoder
func (s *Scheduler) SetEncoderDebounce(id EncoderID, d time.Duration) error {
	ms, err := checkDuration("set_encoder_debounce", d)
	if err != nil {
		return err
	}
	if id < 0 || int(id) >= len(s.encoders) {
		return newErr(NotFound, "set_encoder_debounce", "bad handle")
	}
	s.encoders[id].window = ms
	return nil
}

// Encoder returns a snapshot of the encoder behind id
func (s *Scheduler) Encoder(id EncoderID) (EncoderInfo, error) {
	if id < 0 || int(id) >= len(s.encoders) {
		return EncoderInfo{}, newErr(NotFound, "encoder", "bad handle")
	}
	e := &s.encoders[id]
	return EncoderInfo{
		DataPin:  e.dataPin,
		ClockPin: e.clockPin,
		Window:   time.Duration(e.window) * time.Millisecond,
		Clock:    e.clockStatus,
		Data:     e.dataStatus,
	}, nil
}

// baselineEncoder captures the current clock level so the first real
// sample cannot report a phantom edge
func (s *Scheduler) baselineEncoder(e *encoder, now Timestamp) {
	e.lastDebounce = now
	level, err := s.gpio.GetPin(e.clockPin)
	if err != nil {
		s.report(Fault{Kind: FaultEncoder, Pin: uint32(e.clockPin), At: now, Err: err})
		return
	}
	e.clockStatus = level
	e.prevClockStatus = level
}

// runEncoders resamples each encoder whose window has elapsed. Only a
// low-to-high clock transition reads the data line and calls back.
func (s *Scheduler) runEncoders(now Timestamp) {
	for i := range s.encoders {
		e := &s.encoders[i]
		if Elapsed(now, e.lastDebounce) <= e.window {
			continue
		}
		clk, err := s.gpio.GetPin(e.clockPin)
		if err != nil {
			s.report(Fault{Kind: FaultEncoder, Pin: uint32(e.clockPin), At: now, Err: err})
			continue
		}
		e.clockStatus = clk
		e.lastDebounce = now

		if clk != e.prevClockStatus && clk {
			dt, err := s.gpio.GetPin(e.dataPin)
			if err != nil {
				s.report(Fault{Kind: FaultEncoder, Pin: uint32(e.dataPin), At: now, Err: err})
			} else {
				e.dataStatus = dt
				s.ring.record(EvtEncoderStep, uint32(e.clockPin), now, b2u(dt))
				fn := e.fn
				if err := guard(func() { fn(dt) }); err != nil {
					s.report(Fault{Kind: FaultEncoder, Pin: uint32(e.clockPin), At: now, Err: err})
				}
			}
		}
		// e may be stale if the callback registered another encoder
		s.encoders[i].prevClockStatus = clk
	}
}
