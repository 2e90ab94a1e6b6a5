//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"tweakly/core"
	"tweakly/expander"
)

// Front panel: an MCP23017 for buttons and LEDs and a PCA9685 for dimmed
// backlights, both on I2C0 (SDA=GP4, SCL=GP5)
const (
	panelAddr  = 0x20
	dimmerAddr = 0x40
	dimmerPWM  = 1000 * time.Microsecond
	panelSDA   = machine.GPIO4
	panelSCL   = machine.GPIO5
	panelClock = 400 * machine.KHz
)

// setupPanel brings up the expander bus and returns a scheduler whose
// lines live on the MCP23017 and whose PWM channels live on the PCA9685.
// It returns nil when the MCP23017 does not answer, so the board also runs
// without the panel fitted; a missing PCA9685 only drops the dimmer.
func setupPanel(clock core.Clock, opts ...core.Option) *core.Scheduler {
	bus := machine.I2C0
	err := bus.Configure(machine.I2CConfig{
		Frequency: panelClock,
		SDA:       panelSDA,
		SCL:       panelSCL,
	})
	if err != nil {
		DebugPrintln("[PANEL] i2c configure failed: " + err.Error())
		return nil
	}

	gpio, err := expander.NewGPIO(bus, panelAddr)
	if err != nil {
		DebugPrintln("[PANEL] no expander: " + err.Error())
		return nil
	}
	var pwm core.PWMDriver
	if dimmer, err := expander.NewPWM(bus, dimmerAddr, dimmerPWM); err != nil {
		DebugPrintln("[PANEL] no dimmer: " + err.Error())
	} else {
		pwm = dimmer
	}
	s, err := core.New(clock, gpio, pwm, opts...)
	if err != nil {
		DebugPrintln("[PANEL] " + err.Error())
		return nil
	}
	return s
}
