package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ToolStatus string

const (
	ToolStatusAvailable   ToolStatus = "AVAILABLE"
	ToolStatusRented      ToolStatus = "RENTED"
	ToolStatusMaintenance ToolStatus = "MAINTENANCE"
	ToolStatusUnavailable ToolStatus = "UNAVAILABLE"
)

func (s ToolStatus) Valid() bool {
	switch s {
	case ToolStatusAvailable, ToolStatusRented, ToolStatusMaintenance, ToolStatusUnavailable:
		return true
	}
	return false
}

// Bookable reports whether new rentals may be requested for a tool in this status.
// A rented tool is still bookable for a later period.
func (s ToolStatus) Bookable() bool {
	return s == ToolStatusAvailable || s == ToolStatusRented
}

type MaintenanceImportance string

const (
	MaintenanceImportanceLow    MaintenanceImportance = "LOW"
	MaintenanceImportanceMedium MaintenanceImportance = "MEDIUM"
	MaintenanceImportanceHigh   MaintenanceImportance = "HIGH"
)

func (m MaintenanceImportance) Valid() bool {
	switch m {
	case MaintenanceImportanceLow, MaintenanceImportanceMedium, MaintenanceImportanceHigh:
		return true
	}
	return false
}

type Tool struct {
	ID                        int32                 `json:"id"`
	Name                      string                `json:"name"`
	Description               string                `json:"description"`
	Status                    ToolStatus            `json:"status"`
	WeeklyRate                decimal.Decimal       `json:"weekly_rate"`
	MaintenanceImportance     MaintenanceImportance `json:"maintenance_importance"`
	MaintenanceIntervalMonths *int32                `json:"maintenance_interval_months,omitempty"`
	LastMaintenanceDate       *time.Time            `json:"last_maintenance_date,omitempty"`
	CreatedOn                 time.Time             `json:"created_on"`
	DeletedOn                 *time.Time            `json:"deleted_on,omitempty"`
}
