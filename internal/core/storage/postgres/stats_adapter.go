package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fleetlab/fleet-analytics/internal/core/stats"
	"github.com/fleetlab/fleet-analytics/internal/core/storage"
)

const (
	queryGetVehicleStats = `
		SELECT vehicle_id, vehicle_name, total_distance, monthly_distance,
		       year_month, total_trips, monthly_trips, updated_at
		FROM vehicle_statistics
		WHERE vehicle_id = $1 AND year_month = $2
	`

	queryListVehicleStatsByMonth = `
		SELECT vehicle_id, vehicle_name, total_distance, monthly_distance,
		       year_month, total_trips, monthly_trips, updated_at
		FROM vehicle_statistics
		WHERE year_month = $1
		ORDER BY vehicle_id ASC
	`

	// queryUpsertVehicleStats replaces every derived field in one statement.
	// Concurrent live and batch writers both compute full snapshots, so
	// last-writer-wins here never produces a torn record.
	queryUpsertVehicleStats = `
		INSERT INTO vehicle_statistics (
			vehicle_id, year_month, vehicle_name, total_distance,
			monthly_distance, total_trips, monthly_trips, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (vehicle_id, year_month)
		DO UPDATE SET
			vehicle_name     = EXCLUDED.vehicle_name,
			total_distance   = EXCLUDED.total_distance,
			monthly_distance = EXCLUDED.monthly_distance,
			total_trips      = EXCLUDED.total_trips,
			monthly_trips    = EXCLUDED.monthly_trips,
			updated_at       = EXCLUDED.updated_at
	`
)

// VehicleStatsAdapter implements storage.VehicleStatsStore using PostgreSQL.
type VehicleStatsAdapter struct {
	db *sql.DB
}

// NewVehicleStatsAdapter creates a new VehicleStatsAdapter sharing the given
// connection.
func NewVehicleStatsAdapter(db *sql.DB) *VehicleStatsAdapter {
	return &VehicleStatsAdapter{db: db}
}

// Get returns the running statistics for one (vehicle, year-month) key.
// Returns storage.ErrNotFound when the vehicle has no record for the month.
func (a *VehicleStatsAdapter) Get(ctx context.Context, vehicleID, yearMonth string) (*stats.VehicleStatistics, error) {
	row := a.db.QueryRowContext(ctx, queryGetVehicleStats, vehicleID, yearMonth)
	record, err := scanVehicleStatsRow(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle statistics: %w", err)
	}
	return record, nil
}

// ListByYearMonth returns all vehicle statistics for one month.
func (a *VehicleStatsAdapter) ListByYearMonth(ctx context.Context, yearMonth string) ([]*stats.VehicleStatistics, error) {
	rows, err := a.db.QueryContext(ctx, queryListVehicleStatsByMonth, yearMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicle statistics: %w", err)
	}
	defer rows.Close()

	var records []*stats.VehicleStatistics
	for rows.Next() {
		record, scanErr := scanVehicleStatsRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan vehicle statistics: %w", scanErr)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicle statistics: %w", err)
	}
	return records, nil
}

// Upsert inserts or fully overwrites the statistics snapshot.
func (a *VehicleStatsAdapter) Upsert(ctx context.Context, record *stats.VehicleStatistics) error {
	_, err := a.db.ExecContext(ctx, queryUpsertVehicleStats,
		record.VehicleID,
		record.YearMonth,
		record.VehicleName,
		record.TotalDistance,
		record.MonthlyDistance,
		record.TotalTrips,
		record.MonthlyTrips,
		record.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vehicle statistics: %w", err)
	}
	return nil
}

func scanVehicleStatsRow(row scanner) (*stats.VehicleStatistics, error) {
	var record stats.VehicleStatistics
	err := row.Scan(
		&record.VehicleID,
		&record.VehicleName,
		&record.TotalDistance,
		&record.MonthlyDistance,
		&record.YearMonth,
		&record.TotalTrips,
		&record.MonthlyTrips,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.UpdatedAt = record.UpdatedAt.UTC()
	return &record, nil
}
