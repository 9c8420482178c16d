package utils

import (
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
)

const daysPerWeek = 7

// WeeksBetween rounds the day count up to whole weeks.
func WeeksBetween(start, end time.Time) int64 {
	days := int64(domain.DateOnly(end).Sub(domain.DateOnly(start)).Hours() / 24)
	if days <= 0 {
		return 0
	}
	weeks := days / daysPerWeek
	if days%daysPerWeek > 0 {
		weeks++
	}
	return weeks
}

// ComputePrice charges the weekly rate per started week with a floor of one
// week. An override supplied by an administrator wins outright.
func ComputePrice(weeklyRate decimal.Decimal, start, end time.Time, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	weeks := WeeksBetween(start, end)
	if weeks < 1 {
		weeks = 1
	}
	return weeklyRate.Mul(decimal.NewFromInt(weeks)).Round(2)
}
