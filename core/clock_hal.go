package core

import "time"

// Timestamp is a millisecond reading from a Clock. It wraps at 2^32 ms
// (about 49.7 days); all interval arithmetic goes through Elapsed.
type Timestamp uint32

// Clock is the monotonic millisecond source the scheduler samples once per
// Run call. Platform code provides it (hardware timer, time.Now, a test fake).
type Clock interface {
	// Now returns the current reading. Successive readings must not go
	// backwards except by wrapping around the 32-bit range.
	Now() Timestamp
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() Timestamp

// Now implements Clock.
func (f ClockFunc) Now() Timestamp { return f() }

// Elapsed returns the milliseconds from since to now using unsigned
// subtraction, so a single wrap between the two readings is handled.
func Elapsed(now, since Timestamp) uint32 {
	return uint32(now - since)
}

// Millis converts a duration into the whole-millisecond form stored by the
// registries. Sub-millisecond remainders are truncated. Durations longer
// than the clock range saturate.
func Millis(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	ms := d / time.Millisecond
	if ms > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(ms)
}

// checkDuration validates a caller supplied window and converts it.
func checkDuration(op string, d time.Duration) (uint32, error) {
	if d < 0 {
		return 0, newErr(InvalidParams, op, "negative duration")
	}
	return Millis(d), nil
}
