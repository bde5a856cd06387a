package models

import (
	"time"

	"github.com/courierops/fieldtrack/pkg/uuid"
)

// DailyMetric is one aggregated row per (worker, date). Recomputable at any
// time from the day's usable fixes; the aggregator replaces the whole row.
type DailyMetric struct {
	WorkerID       uuid.UUID `json:"worker_id"`
	Date           time.Time `json:"date"`
	DistanceKm     float64   `json:"distance_km"`
	DurationMin    float64   `json:"duration_min"`
	AvgSpeedKmh    float64   `json:"avg_speed_kmh"`
	Efficiency     float64   `json:"efficiency"`
	FuelEfficiency float64   `json:"fuel_efficiency"`
	ComputedAt     time.Time `json:"computed_at,omitzero"`
}

// RollupRow is a weekly or monthly aggregate over stored daily rows.
type RollupRow struct {
	WorkerID      uuid.UUID `json:"worker_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	DistanceKm    float64   `json:"distance_km"`
	DurationMin   float64   `json:"duration_min"`
	AvgSpeedKmh   float64   `json:"avg_speed_kmh"`
	AvgEfficiency float64   `json:"avg_efficiency"`
	DaysActive    int       `json:"days_active"`
}
