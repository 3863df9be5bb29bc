package timer

import "time"

// Clock reports the current time. Everything measuring idle and connect timeouts
// takes the time from a Clock, so the timeouts can be driven in tests.
type Clock func() time.Time

// System is the default Clock.
func System() time.Time {
	return time.Now()
}

// Manual is a Clock which moves only when told to.
type Manual struct {
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

// Expired reports whether timeout has passed since the moment.
func Expired(since, now time.Time, timeout time.Duration) bool {
	return now.Sub(since) >= timeout
}
