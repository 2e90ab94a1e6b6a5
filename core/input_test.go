package core

import (
	"testing"
	"time"
)

const buttonPin = GPIOPin(14)

// newButtonRig registers a pulled-up button idling high
func newButtonRig(t *testing.T) *rig {
	t.Helper()
	r := newRig(t)
	r.gpio.levels[buttonPin] = true
	if _, err := r.s.RegisterInput(buttonPin, InputPullUp, true); err != nil {
		t.Fatalf("RegisterInput failed: %v", err)
	}
	if r.gpio.modes[buttonPin] != InputPullUp {
		t.Fatalf("Expected pin configured as pull-up, got %v", r.gpio.modes[buttonPin])
	}
	r.at(0)
	return r
}

func (r *rig) views(t *testing.T) (push, sw bool) {
	t.Helper()
	push, err := r.s.PushButton(buttonPin)
	if err != nil {
		t.Fatalf("PushButton failed: %v", err)
	}
	sw, err = r.s.SwitchButton(buttonPin)
	if err != nil {
		t.Fatalf("SwitchButton failed: %v", err)
	}
	return push, sw
}

func TestInputIsolatedPressTogglesOnce(t *testing.T) {
	r := newButtonRig(t)

	r.gpio.levels[buttonPin] = false // press
	r.at(10)
	if push, sw := r.views(t); push || sw {
		t.Fatalf("Change committed before the debounce window: push=%v switch=%v", push, sw)
	}

	r.at(40)
	r.at(60) // 50ms since the change, not yet above the window
	if _, sw := r.views(t); sw {
		t.Fatalf("Committed with elapsed == window")
	}

	r.at(61)
	push, sw := r.views(t)
	if !push || !sw {
		t.Fatalf("Expected confirmed press, got push=%v switch=%v", push, sw)
	}
	lvl, _ := r.s.Level(buttonPin)
	if lvl {
		t.Errorf("Expected debounced level low")
	}

	// Holding the button keeps the latched state without further toggles
	for ms := uint32(100); ms < 1000; ms += 30 {
		r.at(ms)
	}
	push, sw = r.views(t)
	if !push || !sw {
		t.Errorf("Held press changed state: push=%v switch=%v", push, sw)
	}
}

func TestInputBouncesCollapseIntoOneToggle(t *testing.T) {
	r := newButtonRig(t)

	// Bounce every 5ms for 40ms, well inside the 50ms window
	level := true
	for ms := uint32(5); ms <= 40; ms += 5 {
		level = !level
		r.gpio.levels[buttonPin] = level
		r.at(ms)
		if _, sw := r.views(t); sw {
			t.Fatalf("Toggled during bounce at t=%d", ms)
		}
	}
	// Settle low (pressed)
	r.gpio.levels[buttonPin] = false
	r.at(45)
	toggles := 0
	prev := false
	for ms := uint32(50); ms <= 400; ms += 10 {
		r.at(ms)
		if _, sw := r.views(t); sw != prev {
			toggles++
			prev = sw
		}
	}
	if toggles != 1 {
		t.Errorf("Expected exactly 1 toggle after bouncing, got %d", toggles)
	}
}

func TestInputReleaseAndSecondPress(t *testing.T) {
	r := newButtonRig(t)

	press := func(start uint32) {
		r.gpio.levels[buttonPin] = false
		r.at(start)
		r.at(start + 60)
	}
	release := func(start uint32) {
		r.gpio.levels[buttonPin] = true
		r.at(start)
		r.at(start + 60)
	}

	press(100)
	if push, sw := r.views(t); !push || !sw {
		t.Fatalf("First press: push=%v switch=%v", push, sw)
	}

	r.gpio.levels[buttonPin] = true
	r.at(300)
	if push, _ := r.views(t); push {
		t.Errorf("Momentary view should drop as soon as the line changes")
	}
	r.at(360)
	push, sw := r.views(t)
	if push {
		t.Errorf("Momentary view true after confirmed release")
	}
	if !sw {
		t.Errorf("Release must not toggle the switch")
	}

	press(500)
	if _, sw := r.views(t); sw {
		t.Errorf("Second press should latch the switch off")
	}
	release(700)
	if push, sw := r.views(t); push || sw {
		t.Errorf("After second release: push=%v switch=%v", push, sw)
	}
}

func TestInputNoToggleAtBoot(t *testing.T) {
	r := newButtonRig(t)
	for ms := uint32(10); ms < 500; ms += 10 {
		r.at(ms)
	}
	if push, sw := r.views(t); push || sw {
		t.Errorf("Idle button changed state: push=%v switch=%v", push, sw)
	}
}

func TestInputActiveHighPress(t *testing.T) {
	r := newRig(t)
	pin := GPIOPin(3)
	r.s.RegisterInput(pin, InputPullDown, false)
	r.at(0)
	r.gpio.levels[pin] = true
	r.at(10)
	r.at(70)
	sw, _ := r.s.SwitchButton(pin)
	if !sw {
		t.Errorf("Pull-down input should latch on a high level")
	}
}

func TestInputDebounceOverride(t *testing.T) {
	r := newRig(t)
	r.gpio.levels[buttonPin] = true
	r.s.RegisterInput(buttonPin, InputPullUp, true)
	if err := r.s.SetDebounce(buttonPin, 5*time.Millisecond); err != nil {
		t.Fatalf("SetDebounce failed: %v", err)
	}
	r.at(0)
	r.gpio.levels[buttonPin] = false
	r.at(10)
	r.at(16)
	if sw, _ := r.s.SwitchButton(buttonPin); !sw {
		t.Errorf("Expected commit after the 5ms window")
	}
}

func TestInputLookupErrors(t *testing.T) {
	r := newRig(t)
	r.s.RegisterOutput(2, false, "")

	if _, err := r.s.PushButton(9); CodeOf(err) != NotFound {
		t.Errorf("unknown pin: expected NotFound, got %v", err)
	}
	if _, err := r.s.PushButton(2); CodeOf(err) != NotApplicable {
		t.Errorf("output pin: expected NotApplicable, got %v", err)
	}
	if _, err := r.s.SwitchButton(2); CodeOf(err) != NotApplicable {
		t.Errorf("output pin: expected NotApplicable, got %v", err)
	}
	if err := r.s.SetDebounce(9, time.Millisecond); CodeOf(err) != NotFound {
		t.Errorf("unknown pin: expected NotFound, got %v", err)
	}
}

func TestInputRegistrationErrors(t *testing.T) {
	r := newRig(t)
	if _, err := r.s.RegisterInput(1, Output, false); CodeOf(err) != InvalidParams {
		t.Errorf("output mode: expected InvalidParams, got %v", err)
	}
	if _, err := r.s.RegisterInput(1, PinMode(42), false); CodeOf(err) != InvalidParams {
		t.Errorf("bad mode: expected InvalidParams, got %v", err)
	}
	if _, err := r.s.RegisterInput(99, Input, false); CodeOf(err) != InvalidParams {
		t.Errorf("bad pin: expected InvalidParams, got %v", err)
	}
	if _, err := r.s.RegisterInput(1, Input, false); err != nil {
		t.Fatalf("RegisterInput failed: %v", err)
	}
	if _, err := r.s.RegisterInput(1, Input, false); CodeOf(err) != PinInUse {
		t.Errorf("duplicate pin: expected PinInUse, got %v", err)
	}
	if _, err := r.s.RegisterOutput(1, false, ""); CodeOf(err) != PinInUse {
		t.Errorf("input reused as output: expected PinInUse, got %v", err)
	}
}

func TestPinModeDispatch(t *testing.T) {
	r := newRig(t)
	if err := r.s.PinMode(4, Output, true, "leds"); err != nil {
		t.Fatalf("PinMode output failed: %v", err)
	}
	if err := r.s.PinMode(5, InputPullUp, true); err != nil {
		t.Fatalf("PinMode input failed: %v", err)
	}
	if lvl, err := r.s.Output(4); err != nil || !lvl {
		t.Errorf("Expected output 4 high, got %v %v", lvl, err)
	}
	if err := r.s.WriteClass("leds", false); err != nil {
		t.Errorf("Class tag not applied: %v", err)
	}
	if _, err := r.s.Level(5); err != nil {
		t.Errorf("Expected input 5 registered: %v", err)
	}
}

func TestInputReadFaultIsIsolated(t *testing.T) {
	r := newRig(t)
	r.s.RegisterInput(1, Input, false)
	r.s.RegisterInput(2, Input, false)
	r.at(0)

	r.gpio.badPins[1] = true
	r.gpio.levels[2] = true
	r.at(10)
	r.at(70)

	if len(r.fault) != 2 || r.fault[0].Kind != FaultInput || r.fault[0].Pin != 1 {
		t.Errorf("Expected input faults on pin 1, got %+v", r.fault)
	}
	if sw, _ := r.s.SwitchButton(2); !sw {
		t.Errorf("Healthy input stopped advancing after a neighbour failed")
	}
}

func TestInputIdleHighPlainInput(t *testing.T) {
	// External pull-up: a plain input resting high is pressed when low
	r := newRig(t)
	pin := GPIOPin(4)
	r.gpio.levels[pin] = true
	if _, err := r.s.RegisterInput(pin, Input, true); err != nil {
		t.Fatalf("RegisterInput failed: %v", err)
	}
	r.at(0)

	r.gpio.levels[pin] = false
	for ms := uint32(20); ms <= 200; ms += 10 {
		r.at(ms)
	}
	push, _ := r.s.PushButton(pin)
	sw, _ := r.s.SwitchButton(pin)
	if !push || !sw {
		t.Fatalf("Held press: push=%v switch=%v, want both true", push, sw)
	}

	r.gpio.levels[pin] = true
	for ms := uint32(210); ms <= 400; ms += 10 {
		r.at(ms)
	}
	push, _ = r.s.PushButton(pin)
	sw, _ = r.s.SwitchButton(pin)
	if push {
		t.Errorf("Momentary view true after release")
	}
	if !sw {
		t.Errorf("Release toggled the switch back")
	}
}

func TestInputPullUpIdleLow(t *testing.T) {
	r := newRig(t)
	pin := GPIOPin(6)
	r.s.RegisterInput(pin, InputPullUp, false)
	r.at(0)

	r.gpio.levels[pin] = true
	r.at(10)
	r.at(70)
	if sw, _ := r.s.SwitchButton(pin); !sw {
		t.Errorf("Input idling low should latch on a high level")
	}
	if push, _ := r.s.PushButton(pin); !push {
		t.Errorf("Expected momentary view pressed while high")
	}
}
