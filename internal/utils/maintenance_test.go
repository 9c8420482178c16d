package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"toolshed-backend/internal/domain"
)

func TestMonthsSince(t *testing.T) {
	tests := []struct {
		since time.Time
		now   time.Time
		want  int
	}{
		{date(2024, time.January, 15), date(2024, time.January, 31), 0},
		{date(2024, time.January, 15), date(2024, time.February, 14), 0},
		{date(2024, time.January, 15), date(2024, time.February, 15), 1},
		{date(2023, time.November, 30), date(2024, time.February, 29), 2},
		{date(2023, time.December, 1), date(2024, time.March, 1), 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthsSince(tt.since, tt.now), "%s -> %s", tt.since.Format(domain.DateLayout), tt.now.Format(domain.DateLayout))
	}
}

func TestMaintenancePolicy_IsBlocked(t *testing.T) {
	policy := DefaultMaintenancePolicy()
	now := date(2024, time.June, 7)
	one := int32(1)
	threeMonthsAgo := now.AddDate(0, -3, 0)
	lastWeek := now.AddDate(0, 0, -7)

	t.Run("High importance overdue", func(t *testing.T) {
		assert.True(t, policy.IsBlocked(domain.MaintenanceImportanceHigh, &one, &threeMonthsAgo, now))
	})

	t.Run("High importance never serviced", func(t *testing.T) {
		assert.True(t, policy.IsBlocked(domain.MaintenanceImportanceHigh, &one, nil, now))
	})

	t.Run("High importance recently serviced", func(t *testing.T) {
		assert.False(t, policy.IsBlocked(domain.MaintenanceImportanceHigh, &one, &lastWeek, now))
	})

	t.Run("Exactly one interval elapsed", func(t *testing.T) {
		oneMonthAgo := now.AddDate(0, -1, 0)
		assert.False(t, policy.IsBlocked(domain.MaintenanceImportanceHigh, &one, &oneMonthAgo, now))
	})

	t.Run("High importance without interval", func(t *testing.T) {
		assert.False(t, policy.IsBlocked(domain.MaintenanceImportanceHigh, nil, nil, now))
	})

	t.Run("Low and medium never block", func(t *testing.T) {
		assert.False(t, policy.IsBlocked(domain.MaintenanceImportanceLow, &one, nil, now))
		assert.False(t, policy.IsBlocked(domain.MaintenanceImportanceMedium, &one, &threeMonthsAgo, now))
	})

	t.Run("Configured levels", func(t *testing.T) {
		strict := MaintenancePolicy{BlockingLevels: []domain.MaintenanceImportance{
			domain.MaintenanceImportanceMedium, domain.MaintenanceImportanceHigh,
		}}
		assert.True(t, strict.IsBlocked(domain.MaintenanceImportanceMedium, &one, &threeMonthsAgo, now))
		assert.False(t, strict.IsBlocked(domain.MaintenanceImportanceLow, &one, &threeMonthsAgo, now))
	})

	t.Run("Tool helper", func(t *testing.T) {
		tool := &domain.Tool{MaintenanceImportance: domain.MaintenanceImportanceHigh, MaintenanceIntervalMonths: &one, LastMaintenanceDate: &threeMonthsAgo}
		assert.True(t, policy.IsToolBlocked(tool, now))
	})
}
