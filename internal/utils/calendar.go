package utils

import (
	"strings"
	"time"

	"toolshed-backend/internal/domain"
)

// Calendar decides which dates may open or close a rental.
type Calendar struct {
	Anchor time.Weekday
}

func NewCalendar(anchor time.Weekday) Calendar {
	return Calendar{Anchor: anchor}
}

// DefaultCalendar hands tools over on Fridays.
func DefaultCalendar() Calendar {
	return Calendar{Anchor: time.Friday}
}

// IsAllowedAnchor reports whether date falls on the anchor weekday. Only the
// calendar date counts; the clock and location are ignored.
func (c Calendar) IsAllowedAnchor(date time.Time) bool {
	return domain.DateOnly(date).Weekday() == c.Anchor
}

// IsValidInterval requires both ends on an anchor and end strictly after start.
func (c Calendar) IsValidInterval(start, end time.Time) bool {
	if !c.IsAllowedAnchor(start) || !c.IsAllowedAnchor(end) {
		return false
	}
	return domain.DateOnly(end).After(domain.DateOnly(start))
}

// ParseWeekday accepts english weekday names in any case.
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return d, true
		}
	}
	return time.Sunday, false
}
