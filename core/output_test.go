package core

import "testing"

func TestRegisterOutputWritesInitialLevel(t *testing.T) {
	r := newRig(t)
	if _, err := r.s.RegisterOutput(25, true, ""); err != nil {
		t.Fatalf("RegisterOutput failed: %v", err)
	}
	if r.gpio.modes[25] != Output {
		t.Errorf("Expected pin 25 configured as output")
	}
	if len(r.gpio.writes) != 1 || r.gpio.writes[0] != (pinWrite{25, true}) {
		t.Errorf("Expected initial write of high, got %v", r.gpio.writes)
	}
}

func TestWriteCoalescing(t *testing.T) {
	r := newRig(t)
	r.s.RegisterOutput(25, false, "")
	r.gpio.writes = nil

	if err := r.s.Write(25, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(r.gpio.writes) != 0 {
		t.Errorf("Writing the cached level reached the driver")
	}

	r.s.Write(25, true)
	r.s.Write(25, true)
	if len(r.gpio.writes) != 1 {
		t.Errorf("Expected 1 physical write, got %d", len(r.gpio.writes))
	}
	if lvl, _ := r.s.Output(25); !lvl {
		t.Errorf("Expected cached level high")
	}
}

func TestBulkWritesAreIdempotent(t *testing.T) {
	r := newRig(t)
	r.s.RegisterOutput(1, true, "a")
	r.s.RegisterOutput(2, true, "b")
	r.s.RegisterOutput(3, true, "")
	r.gpio.writes = nil

	r.s.WriteAll(true)
	r.s.WriteClass("a", true)
	if len(r.gpio.writes) != 0 {
		t.Errorf("Expected zero physical writes, got %v", r.gpio.writes)
	}

	r.s.WriteAll(false)
	if len(r.gpio.writes) != 3 {
		t.Errorf("Expected 3 writes, got %d", len(r.gpio.writes))
	}
}

func TestToggleVariants(t *testing.T) {
	r := newRig(t)
	r.s.RegisterOutput(1, false, "leds")
	r.s.RegisterOutput(2, true, "leds")
	r.s.RegisterOutput(3, false, "")

	if err := r.s.Toggle(1); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if lvl, _ := r.s.Output(1); !lvl {
		t.Errorf("Toggle did not flip pin 1")
	}

	r.s.ToggleAll()
	want := map[GPIOPin]bool{1: false, 2: false, 3: true}
	for pin, exp := range want {
		if lvl, _ := r.s.Output(pin); lvl != exp {
			t.Errorf("After ToggleAll pin %d = %v, want %v", pin, lvl, exp)
		}
	}

	r.s.ToggleClass("leds")
	if lvl, _ := r.s.Output(3); !lvl {
		t.Errorf("ToggleClass touched an untagged output")
	}
	if lvl, _ := r.s.Output(2); !lvl {
		t.Errorf("ToggleClass did not flip tagged pin 2")
	}
}

func TestWriteClassMatching(t *testing.T) {
	r := newRig(t)
	r.s.RegisterOutput(1, false, "relays")
	r.s.RegisterOutput(2, false, "")
	r.gpio.writes = nil

	if err := r.s.WriteClass("relays", true); err != nil {
		t.Fatalf("WriteClass failed: %v", err)
	}
	if len(r.gpio.writes) != 1 || r.gpio.writes[0].pin != 1 {
		t.Errorf("Expected only pin 1 written, got %v", r.gpio.writes)
	}
	if err := r.s.WriteClass("", true); CodeOf(err) != NotFound {
		t.Errorf("empty class: expected NotFound, got %v", err)
	}
	if err := r.s.WriteClass("lamps", true); CodeOf(err) != NotFound {
		t.Errorf("unknown class: expected NotFound, got %v", err)
	}
}

func TestOutputLookupErrors(t *testing.T) {
	r := newRig(t)
	r.s.RegisterInput(7, Input, false)

	if err := r.s.Write(7, true); CodeOf(err) != NotApplicable {
		t.Errorf("input pin: expected NotApplicable, got %v", err)
	}
	if err := r.s.Toggle(8); CodeOf(err) != NotFound {
		t.Errorf("unknown pin: expected NotFound, got %v", err)
	}
}

func TestWriteFailureKeepsCache(t *testing.T) {
	r := newRig(t)
	r.s.RegisterOutput(1, false, "")
	r.s.RegisterOutput(2, false, "")
	r.gpio.badPins[1] = true

	err := r.s.WriteAll(true)
	if err == nil {
		t.Fatalf("Expected driver error from WriteAll")
	}
	if lvl, _ := r.s.Output(1); lvl {
		t.Errorf("Cache updated despite failed write")
	}
	if lvl, _ := r.s.Output(2); !lvl {
		t.Errorf("Healthy output skipped after a failed neighbour")
	}
}
