package utils

import "time"

// Interval is a half-open date range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps treats intervals as half-open, so a rental ending on the day
// another starts does not overlap it.
func (i Interval) Overlaps(start, end time.Time) bool {
	return start.Before(i.End) && i.Start.Before(end)
}

// FindConflict returns the first existing interval overlapping [start, end).
func FindConflict(start, end time.Time, existing []Interval) (Interval, bool) {
	for _, iv := range existing {
		if iv.Overlaps(start, end) {
			return iv, true
		}
	}
	return Interval{}, false
}

func HasConflict(start, end time.Time, existing []Interval) bool {
	_, found := FindConflict(start, end, existing)
	return found
}
