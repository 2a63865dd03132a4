package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the result of aggregating a set of trips.
// All five fields are derived together so every consumer (running-statistics
// maintainer, period rollups, fleet summary) rounds identically.
type Totals struct {
	TripCount     int64
	TotalDistance decimal.Decimal
	TotalDuration int64 // whole minutes
	AvgDistance   decimal.Decimal
	AvgDuration   int64 // whole minutes, floor division
}

// VehicleStatistics is the cached per-vehicle aggregate snapshot, one record
// per (vehicle, year-month). Both the lifetime and the month window are full
// recomputations over the fact store at UpdatedAt, never incremental
// counters, so backfilled trips are absorbed on the next recompute.
type VehicleStatistics struct {
	VehicleID       string
	VehicleName     string
	TotalDistance   decimal.Decimal
	MonthlyDistance decimal.Decimal
	YearMonth       string // "2006-01"
	TotalTrips      int64
	MonthlyTrips    int64
	UpdatedAt       time.Time
}

// DailyRollup is the precomputed aggregate for one calendar day.
type DailyRollup struct {
	StatDate        time.Time // midnight UTC of the day
	TripCount       int64
	TotalDistance   decimal.Decimal
	TotalDuration   int64
	AverageDistance decimal.Decimal
	AverageDuration int64
}

// WeeklyRollup is the precomputed aggregate for one ISO week.
type WeeklyRollup struct {
	ISOYear         int
	WeekNumber      int
	WeekStartDate   time.Time
	WeekEndDate     time.Time
	TripCount       int64
	TotalDistance   decimal.Decimal
	TotalDuration   int64
	AverageDistance decimal.Decimal
	AverageDuration int64
}

// MonthlyRollup is the precomputed aggregate for one calendar month.
type MonthlyRollup struct {
	Year            int
	Month           int
	TripCount       int64
	TotalDistance   decimal.Decimal
	TotalDuration   int64
	AverageDistance decimal.Decimal
	AverageDuration int64
}

// ApplyTotals overwrites the five derived fields from a fresh aggregation.
func (r *DailyRollup) ApplyTotals(t Totals) {
	r.TripCount = t.TripCount
	r.TotalDistance = t.TotalDistance
	r.TotalDuration = t.TotalDuration
	r.AverageDistance = t.AvgDistance
	r.AverageDuration = t.AvgDuration
}

// ApplyTotals overwrites the five derived fields from a fresh aggregation.
func (r *WeeklyRollup) ApplyTotals(t Totals) {
	r.TripCount = t.TripCount
	r.TotalDistance = t.TotalDistance
	r.TotalDuration = t.TotalDuration
	r.AverageDistance = t.AvgDistance
	r.AverageDuration = t.AvgDuration
}

// ApplyTotals overwrites the five derived fields from a fresh aggregation.
func (r *MonthlyRollup) ApplyTotals(t Totals) {
	r.TripCount = t.TripCount
	r.TotalDistance = t.TotalDistance
	r.TotalDuration = t.TotalDuration
	r.AverageDistance = t.AvgDistance
	r.AverageDuration = t.AvgDuration
}
