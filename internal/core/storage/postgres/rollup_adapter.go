package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fleetlab/fleet-analytics/internal/core/stats"
	"github.com/fleetlab/fleet-analytics/internal/core/storage"
)

const (
	queryGetDailyRollup = `
		SELECT stat_date, trip_count, total_distance, total_duration,
		       average_distance, average_duration
		FROM daily_statistics
		WHERE stat_date = $1
	`

	queryListDailyRollupRange = `
		SELECT stat_date, trip_count, total_distance, total_duration,
		       average_distance, average_duration
		FROM daily_statistics
		WHERE stat_date >= $1 AND stat_date <= $2
		ORDER BY stat_date ASC
	`

	queryUpsertDailyRollup = `
		INSERT INTO daily_statistics (
			stat_date, trip_count, total_distance, total_duration,
			average_distance, average_duration
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stat_date)
		DO UPDATE SET
			trip_count       = EXCLUDED.trip_count,
			total_distance   = EXCLUDED.total_distance,
			total_duration   = EXCLUDED.total_duration,
			average_distance = EXCLUDED.average_distance,
			average_duration = EXCLUDED.average_duration
	`

	queryGetWeeklyRollup = `
		SELECT iso_year, week_number, week_start_date, week_end_date,
		       trip_count, total_distance, total_duration,
		       average_distance, average_duration
		FROM weekly_statistics
		WHERE iso_year = $1 AND week_number = $2
	`

	queryUpsertWeeklyRollup = `
		INSERT INTO weekly_statistics (
			iso_year, week_number, week_start_date, week_end_date,
			trip_count, total_distance, total_duration,
			average_distance, average_duration
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (iso_year, week_number)
		DO UPDATE SET
			week_start_date  = EXCLUDED.week_start_date,
			week_end_date    = EXCLUDED.week_end_date,
			trip_count       = EXCLUDED.trip_count,
			total_distance   = EXCLUDED.total_distance,
			total_duration   = EXCLUDED.total_duration,
			average_distance = EXCLUDED.average_distance,
			average_duration = EXCLUDED.average_duration
	`

	queryGetMonthlyRollup = `
		SELECT year, month, trip_count, total_distance, total_duration,
		       average_distance, average_duration
		FROM monthly_statistics
		WHERE year = $1 AND month = $2
	`

	queryListMonthlyRollupByYear = `
		SELECT year, month, trip_count, total_distance, total_duration,
		       average_distance, average_duration
		FROM monthly_statistics
		WHERE year = $1
		ORDER BY month ASC
	`

	queryUpsertMonthlyRollup = `
		INSERT INTO monthly_statistics (
			year, month, trip_count, total_distance, total_duration,
			average_distance, average_duration
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (year, month)
		DO UPDATE SET
			trip_count       = EXCLUDED.trip_count,
			total_distance   = EXCLUDED.total_distance,
			total_duration   = EXCLUDED.total_duration,
			average_distance = EXCLUDED.average_distance,
			average_duration = EXCLUDED.average_duration
	`
)

// RollupAdapter implements storage.RollupStore using PostgreSQL.
// Every upsert replaces the five derived fields in one statement, which is
// the calculator's recompute-and-replace contract expressed in SQL.
type RollupAdapter struct {
	db *sql.DB
}

// NewRollupAdapter creates a new RollupAdapter sharing the given connection.
func NewRollupAdapter(db *sql.DB) *RollupAdapter {
	return &RollupAdapter{db: db}
}

// GetDaily returns the rollup for one calendar day, or storage.ErrNotFound.
func (a *RollupAdapter) GetDaily(ctx context.Context, date time.Time) (*stats.DailyRollup, error) {
	row := a.db.QueryRowContext(ctx, queryGetDailyRollup, stats.Midnight(date))
	rollup, err := scanDailyRollupRow(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily rollup: %w", err)
	}
	return rollup, nil
}

// ListDailyRange returns the rollups for the inclusive [start, end] date
// range. Days without facts have no rows.
func (a *RollupAdapter) ListDailyRange(ctx context.Context, start, end time.Time) ([]*stats.DailyRollup, error) {
	rows, err := a.db.QueryContext(ctx, queryListDailyRollupRange, stats.Midnight(start), stats.Midnight(end))
	if err != nil {
		return nil, fmt.Errorf("failed to list daily rollups: %w", err)
	}
	defer rows.Close()

	var rollups []*stats.DailyRollup
	for rows.Next() {
		rollup, scanErr := scanDailyRollupRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan daily rollup: %w", scanErr)
		}
		rollups = append(rollups, rollup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily rollups: %w", err)
	}
	return rollups, nil
}

// UpsertDaily inserts or fully overwrites the daily rollup.
func (a *RollupAdapter) UpsertDaily(ctx context.Context, rollup *stats.DailyRollup) error {
	_, err := a.db.ExecContext(ctx, queryUpsertDailyRollup,
		stats.Midnight(rollup.StatDate),
		rollup.TripCount,
		rollup.TotalDistance,
		rollup.TotalDuration,
		rollup.AverageDistance,
		rollup.AverageDuration,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily rollup: %w", err)
	}
	return nil
}

// GetWeekly returns the rollup for one ISO week, or storage.ErrNotFound.
func (a *RollupAdapter) GetWeekly(ctx context.Context, isoYear, weekNumber int) (*stats.WeeklyRollup, error) {
	row := a.db.QueryRowContext(ctx, queryGetWeeklyRollup, isoYear, weekNumber)
	rollup, err := scanWeeklyRollupRow(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly rollup: %w", err)
	}
	return rollup, nil
}

// UpsertWeekly inserts or fully overwrites the weekly rollup.
func (a *RollupAdapter) UpsertWeekly(ctx context.Context, rollup *stats.WeeklyRollup) error {
	_, err := a.db.ExecContext(ctx, queryUpsertWeeklyRollup,
		rollup.ISOYear,
		rollup.WeekNumber,
		stats.Midnight(rollup.WeekStartDate),
		stats.Midnight(rollup.WeekEndDate),
		rollup.TripCount,
		rollup.TotalDistance,
		rollup.TotalDuration,
		rollup.AverageDistance,
		rollup.AverageDuration,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly rollup: %w", err)
	}
	return nil
}

// GetMonthly returns the rollup for one calendar month, or storage.ErrNotFound.
func (a *RollupAdapter) GetMonthly(ctx context.Context, year, month int) (*stats.MonthlyRollup, error) {
	row := a.db.QueryRowContext(ctx, queryGetMonthlyRollup, year, month)
	rollup, err := scanMonthlyRollupRow(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly rollup: %w", err)
	}
	return rollup, nil
}

// ListMonthlyByYear returns the monthly rollups recorded for one year.
func (a *RollupAdapter) ListMonthlyByYear(ctx context.Context, year int) ([]*stats.MonthlyRollup, error) {
	rows, err := a.db.QueryContext(ctx, queryListMonthlyRollupByYear, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly rollups: %w", err)
	}
	defer rows.Close()

	var rollups []*stats.MonthlyRollup
	for rows.Next() {
		rollup, scanErr := scanMonthlyRollupRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan monthly rollup: %w", scanErr)
		}
		rollups = append(rollups, rollup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly rollups: %w", err)
	}
	return rollups, nil
}

// UpsertMonthly inserts or fully overwrites the monthly rollup.
func (a *RollupAdapter) UpsertMonthly(ctx context.Context, rollup *stats.MonthlyRollup) error {
	_, err := a.db.ExecContext(ctx, queryUpsertMonthlyRollup,
		rollup.Year,
		rollup.Month,
		rollup.TripCount,
		rollup.TotalDistance,
		rollup.TotalDuration,
		rollup.AverageDistance,
		rollup.AverageDuration,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly rollup: %w", err)
	}
	return nil
}

func scanDailyRollupRow(row scanner) (*stats.DailyRollup, error) {
	var rollup stats.DailyRollup
	err := row.Scan(
		&rollup.StatDate,
		&rollup.TripCount,
		&rollup.TotalDistance,
		&rollup.TotalDuration,
		&rollup.AverageDistance,
		&rollup.AverageDuration,
	)
	if err != nil {
		return nil, err
	}
	rollup.StatDate = stats.Midnight(rollup.StatDate)
	return &rollup, nil
}

func scanWeeklyRollupRow(row scanner) (*stats.WeeklyRollup, error) {
	var rollup stats.WeeklyRollup
	err := row.Scan(
		&rollup.ISOYear,
		&rollup.WeekNumber,
		&rollup.WeekStartDate,
		&rollup.WeekEndDate,
		&rollup.TripCount,
		&rollup.TotalDistance,
		&rollup.TotalDuration,
		&rollup.AverageDistance,
		&rollup.AverageDuration,
	)
	if err != nil {
		return nil, err
	}
	rollup.WeekStartDate = stats.Midnight(rollup.WeekStartDate)
	rollup.WeekEndDate = stats.Midnight(rollup.WeekEndDate)
	return &rollup, nil
}

func scanMonthlyRollupRow(row scanner) (*stats.MonthlyRollup, error) {
	var rollup stats.MonthlyRollup
	err := row.Scan(
		&rollup.Year,
		&rollup.Month,
		&rollup.TripCount,
		&rollup.TotalDistance,
		&rollup.TotalDuration,
		&rollup.AverageDistance,
		&rollup.AverageDuration,
	)
	if err != nil {
		return nil, err
	}
	return &rollup, nil
}
