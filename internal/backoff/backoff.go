// Package backoff computes reconnect pacing for the transport.
//
// The schedule is plain capped exponential doubling: attempt n waits
// min(base << n, max). The transport resets the attempt counter on every
// successful connection, so a long-lived flaky link pays the short delays
// again after each recovery.
//
// # What this package must NOT do
//
//   - Own timers (the transport owns its cancellable timer handles).
//   - Be imported outside the goRealtime module.
package backoff

import "time"

// Delay returns the wait before reconnect attempt n (0-based).
// base <= 0 disables the schedule (always zero); max <= 0 means uncapped.
func Delay(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		if max > 0 && d >= max {
			return max
		}
		next := d << 1
		if next < d {
			// Doubling overflowed; the schedule is saturated.
			if max > 0 {
				return max
			}
			return d
		}
		d = next
	}
	if max > 0 && d > max {
		d = max
	}
	return d
}
