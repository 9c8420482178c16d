package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsAllowedAnchor(t *testing.T) {
	cal := DefaultCalendar()

	// 2024-03-01 is a Friday
	first := date(2024, time.March, 1)
	for day := 0; day < 21; day++ {
		d := first.AddDate(0, 0, day)
		assert.Equal(t, d.Weekday() == time.Friday, cal.IsAllowedAnchor(d), d.Format("2006-01-02"))
	}

	t.Run("Ignores clock and location", func(t *testing.T) {
		loc := time.FixedZone("UTC-8", -8*3600)
		assert.True(t, cal.IsAllowedAnchor(time.Date(2024, time.March, 1, 23, 30, 0, 0, loc)))
	})

	t.Run("Custom anchor", func(t *testing.T) {
		monday := NewCalendar(time.Monday)
		assert.True(t, monday.IsAllowedAnchor(date(2024, time.March, 4)))
		assert.False(t, monday.IsAllowedAnchor(first))
	})
}

func TestIsValidInterval(t *testing.T) {
	cal := DefaultCalendar()
	w1 := date(2024, time.March, 1)
	w2 := date(2024, time.March, 8)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"One week", w1, w2, true},
		{"Three weeks", w1, w1.AddDate(0, 0, 21), true},
		{"Same day", w1, w1, false},
		{"End before start", w2, w1, false},
		{"Start not anchor", w1.AddDate(0, 0, 1), w2, false},
		{"End not anchor", w1, w2.AddDate(0, 0, -1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsValidInterval(tt.start, tt.end))
		})
	}
}

func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday("friday")
	assert.True(t, ok)
	assert.Equal(t, time.Friday, d)

	d, ok = ParseWeekday(" Monday ")
	assert.True(t, ok)
	assert.Equal(t, time.Monday, d)

	_, ok = ParseWeekday("someday")
	assert.False(t, ok)
}
