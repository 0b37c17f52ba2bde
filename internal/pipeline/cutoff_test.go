package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCutoffWindowContains(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	window := NewCutoffWindow(7, now)

	assert.True(t, window.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(now))
	assert.True(t, window.Contains(window.Cutoff()), "cutoff itself is inside the window")
	assert.False(t, window.Contains(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)))
}

func TestCutoffWindowMonotonic(t *testing.T) {
	// Growing the window must never drop a record that a smaller window
	// kept.
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		now,
		now.AddDate(0, 0, -1),
		now.AddDate(0, 0, -6),
		now.AddDate(0, 0, -13),
		now.AddDate(0, 0, -29),
	}

	small := NewCutoffWindow(7, now)
	large := NewCutoffWindow(30, now)
	for _, ts := range stamps {
		if small.Contains(ts) {
			assert.True(t, large.Contains(ts), "timestamp %v kept by 7d but dropped by 30d", ts)
		}
	}
}

func TestCutoffWindowRetainNilTimestamp(t *testing.T) {
	window := NewCutoffWindow(7, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))

	assert.True(t, window.Retain(nil, UnknownInclude))
	assert.False(t, window.Retain(nil, UnknownExclude))
	assert.False(t, window.Retain(nil, UnknownAssumeNow), "substitution policies must resolve before Retain")
}

func TestCutoffWindowRetainBoundaries(t *testing.T) {
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	window := NewCutoffWindow(7, now)

	old := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, window.Retain(&old, UnknownExclude))

	recent := time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)
	assert.True(t, window.Retain(&recent, UnknownExclude))
}
