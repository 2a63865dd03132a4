package postgres

import (
	"database/sql"
	"fmt"
	"time"

	v1 "github.com/fleetlab/fleet-analytics/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTripRow scans a database row into a TripRecord.
// Handles the nullable end_time, distance and fuel_consumed columns.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanTripRow(row scanner) (*v1.TripRecord, error) {
	var trip v1.TripRecord
	var endTime sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.VehicleID,
		&trip.VehicleName,
		&trip.StartTime,
		&endTime,
		&trip.Distance,
		&trip.StartLatitude,
		&trip.StartLongitude,
		&trip.EndLatitude,
		&trip.EndLongitude,
		&trip.FuelConsumed,
		&trip.IngestedAt,
		&trip.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan trip row: %w", err)
	}

	trip.StartTime = trip.StartTime.UTC()
	if endTime.Valid {
		trip.EndTime = endTime.Time.UTC()
	}
	trip.IngestedAt = trip.IngestedAt.UTC()

	return &trip, nil
}

// nullableTime maps a zero time to SQL NULL.
func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// nullableTimePtr maps an absent window bound to SQL NULL.
func nullableTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
