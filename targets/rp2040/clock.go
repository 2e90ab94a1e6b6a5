//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"tweakly/core"
)

// RP2040/RP2350 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hardwareUptime reads the full 64-bit microsecond timer
func hardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// timerClock is the scheduler clock: milliseconds since boot, truncated to
// 32 bits so it wraps like every other Timestamp source
type timerClock struct{}

func (timerClock) Now() core.Timestamp {
	return core.Timestamp(hardwareUptime() / 1000)
}
