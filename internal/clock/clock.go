// Package clock maps wall-clock time onto a mode's hourly cycle. Everything
// here is pure: no state, no I/O, safe for concurrent use.
package clock

import (
	"time"

	"studytimer/backend/internal/model"
)

// Snapshot describes where within its cycle a mode currently is.
type Snapshot struct {
	SegmentIndex     int
	Phase            string
	RemainingSeconds int
}

// At returns the segment containing the given instant. Only minute and
// second resolution is considered. Exactly on a boundary (second == 0,
// minute == segment start) the segment that begins at that instant applies,
// matching the convention that a transition fires at the boundary minute.
func At(mode model.Mode, now time.Time) Snapshot {
	cycle := mode.CycleMinutes()
	minute := now.Minute() % cycle
	second := minute*60 + now.Second()

	end := 0
	for i, seg := range mode.Segments {
		end += seg.Minutes
		if minute < end {
			return Snapshot{
				SegmentIndex:     i,
				Phase:            seg.Phase,
				RemainingSeconds: end*60 - second,
			}
		}
	}

	// Unreachable for well-formed modes: minute % cycle is always below the
	// final segment end.
	last := len(mode.Segments) - 1
	return Snapshot{
		SegmentIndex:     last,
		Phase:            mode.Segments[last].Phase,
		RemainingSeconds: cycle*60 - second,
	}
}

// Remaining reports the time left until the next boundary as a duration.
func Remaining(mode model.Mode, now time.Time) time.Duration {
	return time.Duration(At(mode, now).RemainingSeconds) * time.Second
}
