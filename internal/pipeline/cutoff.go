package pipeline

import "time"

// CutoffWindow is the inclusive lookback window [now - daysBack, now].
// Growing daysBack can only add records, never remove them.
type CutoffWindow struct {
	DaysBack int
	Now      time.Time
}

// NewCutoffWindow anchors a window of daysBack days at now.
func NewCutoffWindow(daysBack int, now time.Time) CutoffWindow {
	return CutoffWindow{DaysBack: daysBack, Now: now}
}

// Cutoff is the oldest timestamp still inside the window.
func (w CutoffWindow) Cutoff() time.Time {
	return w.Now.AddDate(0, 0, -w.DaysBack)
}

// Contains reports whether t falls on or after the cutoff.
func (w CutoffWindow) Contains(t time.Time) bool {
	return !t.Before(w.Cutoff())
}

// Retain decides whether a record with the given timestamp survives the
// window. A nil timestamp is retained only under UnknownInclude; the
// substitution policies resolve timestamps before this point.
func (w CutoffWindow) Retain(publishedAt *time.Time, policy UnknownDatePolicy) bool {
	if publishedAt == nil {
		return policy == UnknownInclude
	}
	return w.Contains(*publishedAt)
}
