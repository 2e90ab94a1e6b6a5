package core

import (
	"testing"
	"time"
)

const (
	encData  = GPIOPin(10)
	encClock = GPIOPin(11)
)

func TestEncoderRisingEdgeOnly(t *testing.T) {
	r := newRig(t)
	var got []bool
	if _, err := r.s.RegisterEncoder(encData, encClock, func(dir bool) { got = append(got, dir) }); err != nil {
		t.Fatalf("RegisterEncoder failed: %v", err)
	}
	if r.gpio.modes[encData] != Input || r.gpio.modes[encClock] != Input {
		t.Errorf("Encoder lines not configured as inputs")
	}
	r.at(0)

	// rising edge with data high
	r.gpio.levels[encData] = true
	r.gpio.levels[encClock] = true
	r.at(2)
	if len(got) != 1 || got[0] != true {
		t.Fatalf("Expected one callback with true, got %v", got)
	}

	// falling edge: no callback
	r.gpio.levels[encClock] = false
	r.at(4)
	if len(got) != 1 {
		t.Fatalf("Falling edge produced a callback")
	}

	// rising edge with data low
	r.gpio.levels[encData] = false
	r.gpio.levels[encClock] = true
	r.at(6)
	if len(got) != 2 || got[1] != false {
		t.Fatalf("Expected second callback with false, got %v", got)
	}

	// level held high: no repeat
	r.at(8)
	r.at(10)
	if len(got) != 2 {
		t.Errorf("Held clock level repeated the callback")
	}
}

func TestEncoderSamplesOnlyAfterWindow(t *testing.T) {
	r := newRig(t)
	calls := 0
	id, _ := r.s.RegisterEncoder(encData, encClock, func(bool) { calls++ })
	if err := r.s.SetEncoderDebounce(id, 10*time.Millisecond); err != nil {
		t.Fatalf("SetEncoderDebounce failed: %v", err)
	}
	r.at(0)

	r.gpio.levels[encClock] = true
	r.at(5)
	r.at(10)
	if calls != 0 {
		t.Fatalf("Sampled inside the window")
	}
	r.at(11)
	if calls != 1 {
		t.Fatalf("Expected callback once the window elapsed, got %d", calls)
	}

	// A pulse shorter than the window is never seen
	r.gpio.levels[encClock] = false
	r.at(15)
	r.gpio.levels[encClock] = true
	r.at(22)
	if calls != 1 {
		t.Errorf("Glitch inside the window produced a callback")
	}
}

func TestEncoderBaselineSuppressesBootEdge(t *testing.T) {
	r := newRig(t)
	calls := 0
	r.gpio.levels[encClock] = true
	r.s.RegisterEncoder(encData, encClock, func(bool) { calls++ })
	r.at(0)
	r.at(5)
	if calls != 0 {
		t.Errorf("Clock high at boot was reported as an edge")
	}
}

func TestEncoderValidation(t *testing.T) {
	r := newRig(t)
	if _, err := r.s.RegisterEncoder(1, 2, nil); CodeOf(err) != InvalidParams {
		t.Errorf("nil callback: expected InvalidParams, got %v", err)
	}
	if _, err := r.s.RegisterEncoder(1, 1, func(bool) {}); CodeOf(err) != InvalidParams {
		t.Errorf("shared pin: expected InvalidParams, got %v", err)
	}
	r.s.RegisterOutput(3, false, "")
	if _, err := r.s.RegisterEncoder(3, 4, func(bool) {}); CodeOf(err) != PinInUse {
		t.Errorf("pin used by output: expected PinInUse, got %v", err)
	}
	r.s.RegisterEncoder(5, 6, func(bool) {})
	if _, err := r.s.PushButton(6); CodeOf(err) != NotApplicable {
		t.Errorf("encoder line: expected NotApplicable, got %v", err)
	}
	if err := r.s.SetEncoderDebounce(9, time.Millisecond); CodeOf(err) != NotFound {
		t.Errorf("bad handle: expected NotFound, got %v", err)
	}
}

func TestEncoderPanicIsIsolated(t *testing.T) {
	r := newRig(t)
	other := 0
	r.s.RegisterEncoder(1, 2, func(bool) { panic("encoder") })
	r.s.RegisterEncoder(3, 4, func(bool) { other++ })
	r.at(0)

	r.gpio.levels[2] = true
	r.gpio.levels[4] = true
	r.at(5)
	if other != 1 {
		t.Errorf("Second encoder did not run after the first panicked")
	}
	if len(r.fault) != 1 || r.fault[0].Kind != FaultEncoder {
		t.Errorf("Expected one encoder fault, got %+v", r.fault)
	}
	info, _ := r.s.Encoder(0)
	if !info.Clock {
		t.Errorf("Clock level not recorded for the panicking encoder")
	}
}
