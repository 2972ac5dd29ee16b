package access

import (
	"time"
)

// Viewing window bounds relative to a concert's scheduled start.
const (
	OpensBefore = 15 * time.Minute
	ClosesAfter = 3 * time.Hour
)

// IsWithinWindow reports whether now falls inside the viewing window
// [start-OpensBefore, start+ClosesAfter]. Both boundaries are inclusive.
func IsWithinWindow(start, now time.Time) bool {
	opens := start.Add(-OpensBefore)
	closes := start.Add(ClosesAfter)
	return !now.Before(opens) && !now.After(closes)
}

// HasEnded reports whether now is past the window's upper bound.
func HasEnded(start, now time.Time) bool {
	return now.After(start.Add(ClosesAfter))
}
