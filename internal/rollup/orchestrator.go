package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fleetlab/fleet-analytics/internal/core/stats"
	"github.com/fleetlab/fleet-analytics/internal/core/storage"
)

const defaultWorkerCount = 10

// VehicleStatsMaintainer rebuilds one vehicle's running statistics for a
// year-month. The analytics service implements this.
type VehicleStatsMaintainer interface {
	RecomputeForMonth(ctx context.Context, vehicleID, yearMonth string) error
}

// Orchestrator runs the scheduled batch sweeps: a fleet-wide period rollup
// followed by a per-vehicle statistics refresh for every vehicle active in
// the period.
//
// A single vehicle's failure is isolated and logged so one bad vehicle never
// aborts the fleet sweep. The caller decides whether a fleet-level failure
// propagates: the scheduler swallows it, the manual trigger surfaces it.
type Orchestrator struct {
	trips       storage.TripStore
	calculator  *Calculator
	maintainer  VehicleStatsMaintainer
	workerCount int
	nowFn       func() time.Time
}

func NewOrchestrator(
	trips storage.TripStore,
	calculator *Calculator,
	maintainer VehicleStatsMaintainer,
	workerCount int,
) *Orchestrator {
	if trips == nil {
		panic("rollup: trip store must not be nil")
	}
	if calculator == nil {
		panic("rollup: calculator must not be nil")
	}
	if maintainer == nil {
		panic("rollup: vehicle stats maintainer must not be nil")
	}
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	return &Orchestrator{
		trips:       trips,
		calculator:  calculator,
		maintainer:  maintainer,
		workerCount: workerCount,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RunDailyBatch rolls up the most recently completed day and refreshes the
// statistics of every vehicle that drove in it.
func (o *Orchestrator) RunDailyBatch(ctx context.Context) error {
	target := stats.PreviousDay(o.nowFn())
	slog.Info("[Batch] Starting daily batch", "date", target.Format(time.DateOnly))

	if err := o.calculator.CalculateDaily(ctx, target); err != nil {
		return fmt.Errorf("daily rollup: %w", err)
	}

	period := stats.DayPeriod(target)
	if err := o.refreshVehicles(ctx, period); err != nil {
		return fmt.Errorf("daily vehicle refresh: %w", err)
	}

	slog.Info("[Batch] Daily batch complete", "date", target.Format(time.DateOnly))
	return nil
}

// RunWeeklyBatch rolls up the most recently completed ISO week and refreshes
// the statistics of every vehicle that drove in it.
func (o *Orchestrator) RunWeeklyBatch(ctx context.Context) error {
	weekStart := stats.PreviousWeekStart(o.nowFn())
	slog.Info("[Batch] Starting weekly batch", "week_start", weekStart.Format(time.DateOnly))

	if err := o.calculator.CalculateWeekly(ctx, weekStart); err != nil {
		return fmt.Errorf("weekly rollup: %w", err)
	}

	period := stats.WeekPeriod(weekStart)
	if err := o.refreshVehicles(ctx, period); err != nil {
		return fmt.Errorf("weekly vehicle refresh: %w", err)
	}

	slog.Info("[Batch] Weekly batch complete", "week_start", weekStart.Format(time.DateOnly))
	return nil
}

// RunMonthlyBatch rolls up the most recently completed calendar month and
// refreshes the statistics of every vehicle that drove in it.
func (o *Orchestrator) RunMonthlyBatch(ctx context.Context) error {
	year, month := stats.PreviousMonth(o.nowFn())
	slog.Info("[Batch] Starting monthly batch", "year", year, "month", month)

	if err := o.calculator.CalculateMonthly(ctx, year, month); err != nil {
		return fmt.Errorf("monthly rollup: %w", err)
	}

	period := stats.MonthPeriod(year, month)
	if err := o.refreshVehicles(ctx, period); err != nil {
		return fmt.Errorf("monthly vehicle refresh: %w", err)
	}

	slog.Info("[Batch] Monthly batch complete", "year", year, "month", month)
	return nil
}

// refreshVehicles recomputes the running statistics of every vehicle with at
// least one trip in the period. Each vehicle is recomputed for the year-month
// containing the period's start, across a bounded worker pool. Per-vehicle
// failures are logged and swallowed.
func (o *Orchestrator) refreshVehicles(ctx context.Context, period stats.Period) error {
	vehicles, err := o.trips.DistinctVehicles(ctx, period.Start, period.End)
	if err != nil {
		return fmt.Errorf("enumerate vehicles: %w", err)
	}
	if len(vehicles) == 0 {
		slog.Debug("[Batch] No active vehicles in period", "start", period.Start)
		return nil
	}

	yearMonth := stats.YearMonth(period.Start)
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workerCount)
	results := make(chan error, len(vehicles))

	for _, vehicle := range vehicles {
		vehicle := vehicle
		g.Go(func() error {
			if err := o.maintainer.RecomputeForMonth(gctx, vehicle.VehicleID, yearMonth); err != nil {
				slog.Error("[Batch] Vehicle statistics refresh failed",
					"vehicle_id", vehicle.VehicleID,
					"year_month", yearMonth,
					"error", err,
				)
				results <- err
			}
			// Never return the error: one vehicle must not cancel the group.
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	for range results {
		failed++
	}

	slog.Info("[Batch] Vehicle statistics refresh complete",
		"year_month", yearMonth,
		"vehicles", len(vehicles),
		"failed", failed,
	)
	return nil
}
