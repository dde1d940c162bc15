package calls

import "time"

// ComputeDuration returns the call duration in seconds.
//
// Zero when either timestamp is absent. A negative span (clock skew or bad
// input) is clamped to zero and reported through clamped so callers can flag it.
func ComputeDuration(startedAt, endedAt *time.Time) (seconds float64, clamped bool) {
	if startedAt == nil || endedAt == nil {
		return 0, false
	}
	d := endedAt.Sub(*startedAt)
	if d < 0 {
		return 0, true
	}
	return d.Seconds(), false
}
