package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fleetlab/fleet-analytics/internal/core/stats"
	"github.com/fleetlab/fleet-analytics/internal/core/storage"
)

// Calculator computes fleet-wide period rollups from the trip facts.
// Each calculation is a full recomputation over the period's window, so
// re-running a period is idempotent and absorbs backfilled trips.
type Calculator struct {
	trips   storage.TripStore
	rollups storage.RollupStore
}

func NewCalculator(trips storage.TripStore, rollups storage.RollupStore) *Calculator {
	if trips == nil {
		panic("rollup: trip store must not be nil")
	}
	if rollups == nil {
		panic("rollup: rollup store must not be nil")
	}
	return &Calculator{trips: trips, rollups: rollups}
}

// CalculateDaily computes and upserts the rollup for one calendar day.
// A day with zero trips is a no-op: no record is written and an existing
// record is left untouched.
func (c *Calculator) CalculateDaily(ctx context.Context, date time.Time) error {
	period := stats.DayPeriod(date)

	trips, err := c.trips.FindInRange(ctx, "", period.Start, period.End)
	if err != nil {
		return fmt.Errorf("fetch daily trips: %w", err)
	}
	if len(trips) == 0 {
		slog.Debug("[Rollup] No trips for day, skipping", "date", period.Start.Format(time.DateOnly))
		return nil
	}

	rollup := &stats.DailyRollup{StatDate: period.Start}
	rollup.ApplyTotals(stats.Aggregate(trips))

	if err := c.rollups.UpsertDaily(ctx, rollup); err != nil {
		return fmt.Errorf("upsert daily rollup: %w", err)
	}

	slog.Info("[Rollup] Daily rollup computed",
		"date", period.Start.Format(time.DateOnly),
		"trip_count", rollup.TripCount,
		"total_distance", rollup.TotalDistance,
	)
	return nil
}

// CalculateWeekly computes and upserts the rollup for the ISO week beginning
// at weekStart (a Monday). The record is keyed by the ISO year and week
// number of the week's start date, so weeks straddling a calendar year
// boundary land under a single key.
func (c *Calculator) CalculateWeekly(ctx context.Context, weekStart time.Time) error {
	period := stats.WeekPeriod(weekStart)

	trips, err := c.trips.FindInRange(ctx, "", period.Start, period.End)
	if err != nil {
		return fmt.Errorf("fetch weekly trips: %w", err)
	}
	if len(trips) == 0 {
		slog.Debug("[Rollup] No trips for week, skipping", "week_start", period.Start.Format(time.DateOnly))
		return nil
	}

	isoYear, weekNumber := stats.ISOWeekKey(period.Start)
	rollup := &stats.WeeklyRollup{
		ISOYear:       isoYear,
		WeekNumber:    weekNumber,
		WeekStartDate: period.Start,
		WeekEndDate:   stats.Midnight(period.End),
	}
	rollup.ApplyTotals(stats.Aggregate(trips))

	if err := c.rollups.UpsertWeekly(ctx, rollup); err != nil {
		return fmt.Errorf("upsert weekly rollup: %w", err)
	}

	slog.Info("[Rollup] Weekly rollup computed",
		"iso_year", isoYear,
		"week_number", weekNumber,
		"trip_count", rollup.TripCount,
	)
	return nil
}

// CalculateMonthly computes and upserts the rollup for one calendar month.
func (c *Calculator) CalculateMonthly(ctx context.Context, year, month int) error {
	period := stats.MonthPeriod(year, month)

	trips, err := c.trips.FindInRange(ctx, "", period.Start, period.End)
	if err != nil {
		return fmt.Errorf("fetch monthly trips: %w", err)
	}
	if len(trips) == 0 {
		slog.Debug("[Rollup] No trips for month, skipping", "year", year, "month", month)
		return nil
	}

	rollup := &stats.MonthlyRollup{Year: year, Month: month}
	rollup.ApplyTotals(stats.Aggregate(trips))

	if err := c.rollups.UpsertMonthly(ctx, rollup); err != nil {
		return fmt.Errorf("upsert monthly rollup: %w", err)
	}

	slog.Info("[Rollup] Monthly rollup computed",
		"year", year,
		"month", month,
		"trip_count", rollup.TripCount,
	)
	return nil
}
