package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateFor(t *testing.T) {
	start := time.Date(2025, 11, 8, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		everLive bool
		want     StreamState
	}{
		{"before window", start.Add(-20 * time.Minute), false, StateNotYetOpen},
		{"inside window no live yet", start.Add(-10 * time.Minute), false, StateProbingLive},
		{"inside window live seen", start.Add(30 * time.Minute), true, StateLiveConfirmed},
		{"sticky after probe flicker", start.Add(2 * time.Hour), true, StateLiveConfirmed},
		{"ended", start.Add(3*time.Hour + time.Minute), false, StateEnded},
		{"ended wins over ever live", start.Add(4 * time.Hour), true, StateEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateFor(start, tt.now, tt.everLive))
		})
	}
}

func TestWaitingStateFor(t *testing.T) {
	start := time.Date(2025, 11, 8, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, StateNotYetOpen, WaitingStateFor(start, start.Add(-time.Hour)))
	assert.Equal(t, StateWindowOpenWaiting, WaitingStateFor(start, start.Add(-5*time.Minute)))
	assert.Equal(t, StateEnded, WaitingStateFor(start, start.Add(5*time.Hour)))
}

func TestStateEnded_Terminal(t *testing.T) {
	start := time.Date(2025, 11, 8, 20, 0, 0, 0, time.UTC)
	after := start.Add(3*time.Hour + time.Second)

	// No combination of inputs after the window leaves ended.
	for _, everLive := range []bool{true, false} {
		assert.Equal(t, StateEnded, StateFor(start, after, everLive))
		assert.Equal(t, StateEnded, StateFor(start, after.Add(48*time.Hour), everLive))
	}
}
