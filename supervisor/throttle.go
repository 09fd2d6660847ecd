package supervisor

import "time"

const (
	throttleWindow     = 10 * time.Second
	throttleMaxStarts  = 5
	throttleCooldown   = 60 * time.Second
)

// AllowRespawn applies the window/count/cooldown policy of spec.md §4.6 to
// tag and reports whether a launch should proceed now.
//
// Grounded on stats/throttler.go's WorkerThrottler shape: a small stateful
// calculator type exposing one decision method, reshaped from the
// load/swap interpolation into a windowed-count/cooldown state machine.
//
//   - While a cool-down is in effect (windowStart in the future), refuse.
//   - If windowStart is older than the 10s window, reset window and count.
//   - If count >= 5, start a 60s cool-down, reset count, and refuse this
//     start.
//   - Otherwise increment count and allow the start.
func (t *Table) AllowRespawn(tag string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.throttleLocked(tag)

	if ts.windowStart.IsZero() {
		ts.windowStart = now
		ts.count = 0
	}

	// Still cooling down: windowStart was pushed into the future by a
	// previous throttle trip.
	if now.Before(ts.windowStart) {
		return false
	}

	if now.Sub(ts.windowStart) >= throttleWindow {
		ts.windowStart = now
		ts.count = 0
	}

	if ts.count >= throttleMaxStarts {
		ts.windowStart = now.Add(throttleCooldown)
		ts.count = 0
		return false
	}

	ts.count++
	return true
}
