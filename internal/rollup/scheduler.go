package rollup

import (
	"context"
	"log/slog"
	"time"

	"github.com/fleetlab/fleet-analytics/internal/core/stats"
)

// BatchRunner executes the three batch sweeps. The orchestrator implements
// this; tests substitute a recorder.
type BatchRunner interface {
	RunDailyBatch(ctx context.Context) error
	RunWeeklyBatch(ctx context.Context) error
	RunMonthlyBatch(ctx context.Context) error
}

// Scheduler fires batch schedules on a periodic tick.
//
// Each tick evaluates every schedule against the wall clock: a schedule is
// due once its trigger time has passed within the current period (day, ISO
// week, or calendar month) and it has not already fired for that period.
// Firing is tracked in memory, so a restart inside a period can re-fire a
// schedule; the sweeps are idempotent so a duplicate run is harmless.
type Scheduler struct {
	interval  time.Duration
	schedules []Schedule
	runner    BatchRunner
	nowFn     func() time.Time
	lastFired map[string]time.Time // schedule name to period start it last fired for
}

// NewScheduler creates a ticker-driven scheduler over the loaded schedules.
func NewScheduler(interval time.Duration, schedules []Schedule, runner BatchRunner) *Scheduler {
	if runner == nil {
		panic("rollup: batch runner must not be nil")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		interval:  interval,
		schedules: schedules,
		runner:    runner,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
		lastFired: make(map[string]time.Time),
	}
}

// Start begins the scheduling loop. Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting batch scheduler",
		"interval", s.interval,
		"schedules", len(s.schedules),
	)

	// Evaluate immediately so a schedule whose trigger time passed while the
	// process was down still fires within its period.
	s.fireDue(ctx)

	for {
		select {
		case <-ticker.C:
			s.fireDue(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// fireDue runs every schedule that is due at the current tick.
// Batch failures are logged and swallowed: the schedule is still marked as
// fired for the period, and the next period's run (or a manual trigger)
// recovers because every sweep recomputes from durable facts.
func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.nowFn()

	for _, schedule := range s.schedules {
		periodStart, due := s.evaluate(schedule, now)
		if !due {
			continue
		}
		if s.lastFired[schedule.Name].Equal(periodStart) {
			continue
		}
		s.lastFired[schedule.Name] = periodStart

		slog.Info("[Scheduler] Firing batch schedule",
			"schedule", schedule.Name,
			"cadence", schedule.Cadence,
			"period_start", periodStart.Format(time.DateOnly),
		)

		var err error
		switch schedule.Cadence {
		case CadenceDaily:
			err = s.runner.RunDailyBatch(ctx)
		case CadenceWeekly:
			err = s.runner.RunWeeklyBatch(ctx)
		case CadenceMonthly:
			err = s.runner.RunMonthlyBatch(ctx)
		}
		if err != nil {
			slog.Error("[Scheduler] Batch run failed",
				"schedule", schedule.Name,
				"cadence", schedule.Cadence,
				"error", err,
			)
		}
	}
}

// evaluate resolves the schedule's current period start and whether its
// trigger time has passed within that period.
func (s *Scheduler) evaluate(schedule Schedule, now time.Time) (periodStart time.Time, due bool) {
	switch schedule.Cadence {
	case CadenceDaily:
		periodStart = stats.Midnight(now)
	case CadenceWeekly:
		periodStart = stats.WeekStart(now)
	case CadenceMonthly:
		periodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}, false
	}

	trigger := stats.Midnight(now).Add(
		time.Duration(schedule.Hour)*time.Hour + time.Duration(schedule.Minute)*time.Minute)

	// Weekly fires on Mondays, monthly on the first. On any other day the
	// trigger instant for the period has already passed and lastFired keeps
	// it from re-firing.
	switch schedule.Cadence {
	case CadenceWeekly:
		if now.Weekday() != time.Monday {
			return periodStart, false
		}
	case CadenceMonthly:
		if now.Day() != 1 {
			return periodStart, false
		}
	}

	return periodStart, !now.Before(trigger)
}
