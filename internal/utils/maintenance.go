package utils

import (
	"time"

	"toolshed-backend/internal/domain"
)

// MaintenancePolicy names the importance levels whose overdue maintenance
// blocks new rentals.
type MaintenancePolicy struct {
	BlockingLevels []domain.MaintenanceImportance
}

// DefaultMaintenancePolicy only lets high importance tools block.
func DefaultMaintenancePolicy() MaintenancePolicy {
	return MaintenancePolicy{BlockingLevels: []domain.MaintenanceImportance{domain.MaintenanceImportanceHigh}}
}

func (p MaintenancePolicy) blocks(importance domain.MaintenanceImportance) bool {
	for _, level := range p.BlockingLevels {
		if level == importance {
			return true
		}
	}
	return false
}

// IsBlocked reports whether a tool must not be booked until it is serviced.
// A tool that was never serviced is treated as infinitely overdue.
func (p MaintenancePolicy) IsBlocked(importance domain.MaintenanceImportance, intervalMonths *int32, lastMaintenance *time.Time, now time.Time) bool {
	if !p.blocks(importance) || intervalMonths == nil {
		return false
	}
	if lastMaintenance == nil {
		return true
	}
	return MonthsSince(*lastMaintenance, now) > int(*intervalMonths)
}

// IsToolBlocked applies the policy to a tool's maintenance metadata.
func (p MaintenancePolicy) IsToolBlocked(tool *domain.Tool, now time.Time) bool {
	return p.IsBlocked(tool.MaintenanceImportance, tool.MaintenanceIntervalMonths, tool.LastMaintenanceDate, now)
}

// MonthsSince counts whole calendar months from since to now. A month is only
// complete once the day of month has been reached again.
func MonthsSince(since, now time.Time) int {
	y1, m1, d1 := since.Date()
	y2, m2, d2 := now.Date()
	months := (y2-y1)*12 + int(m2-m1)
	if d2 < d1 {
		months--
	}
	return months
}
