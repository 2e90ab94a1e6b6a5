// Package sim provides in-memory collaborators for running a
// core.Scheduler on a host: a manual clock, a GPIO bank and a PWM bank.
package sim

import (
	"sync/atomic"
	"time"

	"tweakly/core"
)

// Clock is a manually advanced millisecond clock. Like the hardware
// counter it wraps at 2^32 ms.
type Clock struct {
	ms atomic.Uint32
}

// Now implements core.Clock
func (c *Clock) Now() core.Timestamp {
	return core.Timestamp(c.ms.Load())
}

// Set jumps to an absolute reading
func (c *Clock) Set(ms uint32) {
	c.ms.Store(ms)
}

// Advance moves the clock forward by d, truncated to whole milliseconds
func (c *Clock) Advance(d time.Duration) core.Timestamp {
	return core.Timestamp(c.ms.Add(core.Millis(d)))
}
