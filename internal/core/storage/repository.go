package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/fleetlab/fleet-analytics/internal/api/v1"
	"github.com/fleetlab/fleet-analytics/internal/core/stats"
)

// ErrNotFound is returned by keyed lookups when no record exists.
// Callers translate this into zero-valued defaults: "no statistics yet" is
// a success condition, not a failure.
var ErrNotFound = errors.New("record not found")

// VehicleRef is a distinct vehicle observed in the fact stream.
type VehicleRef struct {
	VehicleID   string
	VehicleName string
}

// TripStore is the read/write interface over the append-only trip facts.
//
// Scalar aggregates (SumDistance, CountTrips) are pushed to the store so the
// running-statistics maintainer stays a full recomputation over durable
// facts rather than an in-memory counter. A nil start/end means unbounded;
// when both are set the window is half-open [start, end).
type TripStore interface {
	SaveTrip(ctx context.Context, trip *v1.TripRecord) error

	// FindAll returns every trip ordered by start time ascending.
	// Used by the live fleet summary's full scan.
	FindAll(ctx context.Context) ([]*v1.TripRecord, error)

	// FindByVehicle returns all trips for one vehicle ordered by start time.
	FindByVehicle(ctx context.Context, vehicleID string) ([]*v1.TripRecord, error)

	// FindInRange returns trips whose start time falls in the inclusive
	// [start, end] window. vehicleID "" matches all vehicles.
	FindInRange(ctx context.Context, vehicleID string, start, end time.Time) ([]*v1.TripRecord, error)

	SumDistance(ctx context.Context, vehicleID string, start, end *time.Time) (decimal.Decimal, error)
	CountTrips(ctx context.Context, vehicleID string, start, end *time.Time) (int64, error)

	// DistinctVehicles enumerates vehicles with at least one trip starting
	// in the inclusive [start, end] window.
	DistinctVehicles(ctx context.Context, start, end time.Time) ([]VehicleRef, error)
}

// VehicleStatsStore persists the per-(vehicle, year-month) running
// statistics. Upsert replaces every derived field in one statement. The
// record is a point-in-time snapshot, so a concurrent writer can only be
// overwritten by another complete snapshot, never merged into a torn one.
type VehicleStatsStore interface {
	Get(ctx context.Context, vehicleID, yearMonth string) (*stats.VehicleStatistics, error)
	ListByYearMonth(ctx context.Context, yearMonth string) ([]*stats.VehicleStatistics, error)
	Upsert(ctx context.Context, record *stats.VehicleStatistics) error
}

// RollupStore persists the daily/weekly/monthly period rollups.
// A period with zero facts never has a record; lookups for such periods
// return ErrNotFound.
type RollupStore interface {
	GetDaily(ctx context.Context, date time.Time) (*stats.DailyRollup, error)
	ListDailyRange(ctx context.Context, start, end time.Time) ([]*stats.DailyRollup, error)
	UpsertDaily(ctx context.Context, rollup *stats.DailyRollup) error

	GetWeekly(ctx context.Context, isoYear, weekNumber int) (*stats.WeeklyRollup, error)
	UpsertWeekly(ctx context.Context, rollup *stats.WeeklyRollup) error

	GetMonthly(ctx context.Context, year, month int) (*stats.MonthlyRollup, error)
	ListMonthlyByYear(ctx context.Context, year int) ([]*stats.MonthlyRollup, error)
	UpsertMonthly(ctx context.Context, rollup *stats.MonthlyRollup) error
}
