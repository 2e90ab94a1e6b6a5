//go:build rp2040 || rp2350

package main

import (
	"machine"
)

var (
	debugUART    *machine.UART
	debugEnabled bool
)

// InitDebugUART initializes UART0 on GPIO0 (TX) and GPIO1 (RX) for debugging
// Baud rate: 115200
func InitDebugUART() {
	debugUART = machine.UART0

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		debugEnabled = false
		return
	}
	debugEnabled = true
	DebugPrintln("=== tweakly debug UART ===")
}

// DebugPrintln writes a string to the debug UART with newline. It doubles
// as the scheduler's DebugWriter.
func DebugPrintln(s string) {
	if !debugEnabled || debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
