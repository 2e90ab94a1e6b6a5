//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"tweakly/core"
)

// Demo wiring on a Pico
const (
	ledPin      = core.GPIOPin(25) // on-board LED
	buttonPin   = core.GPIOPin(15) // to ground, internal pull-up
	encoderData = core.GPIOPin(10)
	encoderClk  = core.GPIOPin(11)
	breathePin  = core.PWMPin(16)
	relayPin    = core.GPIOPin(17)

	panelModeButton = core.GPIOPin(8) // MCP23017 GPB0
	panelLEDs       = "panel"
	backlights      = "backlight" // PCA9685 channels 0-3
)

var (
	brightness core.PWMValue = 128
	fadeFault  bool
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}
	InitDebugUART()

	opts := []core.Option{
		core.WithDebugWriter(DebugPrintln),
		core.WithFaultHandler(func(f core.Fault) {
			if f.Kind == core.FaultFade {
				fadeFault = true
			}
		}),
	}
	clock := timerClock{}
	s, err := core.New(clock, NewRPGPIODriver(), NewRP2040PWMDriver(), opts...)
	if err != nil {
		DebugPrintln("[BOOT] " + err.Error())
		return
	}
	must(s.PinMode(ledPin, core.Output, false))
	must(s.PinMode(relayPin, core.Output, false))
	must(s.PinMode(buttonPin, core.InputPullUp, true))
	if _, err := s.RegisterPWM(breathePin, 0, 0, 255); err != nil {
		DebugPrintln("[BOOT] " + err.Error())
	} else {
		must(s.SetFadeDelay(breathePin, 8*time.Millisecond))
		must(s.Fade(breathePin, core.FadeAlways))
	}

	if _, err := s.SetTick("blink", 500*time.Millisecond, func() { s.Toggle(ledPin) }); err != nil {
		DebugPrintln("[BOOT] " + err.Error())
	}
	if _, err := s.SetTick("relay", 50*time.Millisecond, func() {
		on, _ := s.SwitchButton(buttonPin)
		s.Write(relayPin, on)
	}); err != nil {
		DebugPrintln("[BOOT] " + err.Error())
	}
	if _, err := s.RegisterEncoder(encoderData, encoderClk, func(cw bool) {
		if cw && brightness < 255 {
			brightness++
		} else if !cw && brightness > 0 {
			brightness--
		}
		s.WritePWM(breathePin, brightness)
	}); err != nil {
		DebugPrintln("[BOOT] " + err.Error())
	}

	panel := setupPanel(clock, opts...)
	if panel != nil {
		must(panel.PinMode(panelModeButton, core.InputPullUp, true))
		for pin := core.GPIOPin(0); pin < 4; pin++ {
			must(panel.PinMode(pin, core.Output, false, panelLEDs))
		}
		dimmed := 0
		for ch := core.PWMPin(0); ch < 4; ch++ {
			if _, err := panel.RegisterPWM(ch, 0, 0, 4095, backlights); err == nil {
				panel.SetFadeDelay(ch, time.Millisecond)
				dimmed++
			}
		}
		if dimmed > 0 {
			must(panel.FadeClass(backlights, core.FadeIn))
		}
		if _, err := panel.SetTick("chase", 250*time.Millisecond, func() {
			if sw, _ := panel.SwitchButton(panelModeButton); sw {
				panel.ToggleClass(panelLEDs)
			}
		}); err != nil {
			DebugPrintln("[BOOT] " + err.Error())
		}
	}

	for {
		s.Run()
		if fadeFault {
			// Solid LED marks a dead PWM slice
			fadeFault = false
			s.PauseTick("blink")
			s.Write(ledPin, true)
		}
		if panel != nil {
			panel.Run()
		}
		// Yield to other goroutines
		time.Sleep(100 * time.Microsecond)
	}
}

func must(err error) {
	if err != nil {
		DebugPrintln("[BOOT] " + err.Error())
	}
}
