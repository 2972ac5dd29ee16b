package access

import (
	"time"
)

// StreamState is the composite state the player observes. It is derived
// per request, never persisted server-side.
type StreamState string

const (
	StateNotYetOpen        StreamState = "not_yet_open"
	StateWindowOpenWaiting StreamState = "window_open_waiting"
	StateProbingLive       StreamState = "probing_live"
	StateLiveConfirmed     StreamState = "live_confirmed"
	StateEnded             StreamState = "ended"
)

// StateFor derives the stream state from the concert start, the current
// instant and the caller's latched "was ever seen live" flag. Ended is
// terminal and wins over everything else. live_confirmed is sticky: once
// everLive is set the state stays live_confirmed for the rest of the
// window even if later probes fail.
func StateFor(start, now time.Time, everLive bool) StreamState {
	if HasEnded(start, now) {
		return StateEnded
	}
	if !IsWithinWindow(start, now) {
		return StateNotYetOpen
	}
	if everLive {
		return StateLiveConfirmed
	}
	return StateProbingLive
}

// WaitingStateFor is StateFor before any probe has been attempted inside
// the window: the window is open but polling has not started yet.
func WaitingStateFor(start, now time.Time) StreamState {
	if HasEnded(start, now) {
		return StateEnded
	}
	if !IsWithinWindow(start, now) {
		return StateNotYetOpen
	}
	return StateWindowOpenWaiting
}
