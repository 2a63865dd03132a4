package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TripRecord is the atomic fact of the system: one completed vehicle trip.
// Records are immutable after ingestion. Statistics are always derived by
// recomputation over the fact stream, never by mutating a trip.
type TripRecord struct {
	// ID is the unique identifier assigned by the ingestion service.
	ID string `json:"id"`

	// VehicleID identifies the vehicle that drove this trip.
	// This is the primary dimension for statistics attribution.
	// This field is REQUIRED and has no default value.
	VehicleID string `json:"vehicle_id"`

	// VehicleName is the display name carried on the fact so statistics
	// records can be created without a vehicle-registry lookup.
	VehicleName string `json:"vehicle_name"`

	// StartTime is when the trip began. Canonical ordering and all period
	// windowing key off this timestamp.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the trip ended. May be zero for trips ingested from
	// sources that only report departures; such trips contribute zero
	// duration but still count.
	EndTime time.Time `json:"end_time"`

	// Distance is the driven distance in km, fixed 2-decimal precision.
	// Invalid (null) distances are tolerated and excluded from sums.
	Distance decimal.NullDecimal `json:"distance"`

	// Geographic endpoints of the trip.
	StartLatitude  decimal.Decimal `json:"start_latitude"`
	StartLongitude decimal.Decimal `json:"start_longitude"`
	EndLatitude    decimal.Decimal `json:"end_latitude"`
	EndLongitude   decimal.Decimal `json:"end_longitude"`

	// FuelConsumed is litres of fuel used, when the vehicle reports it.
	FuelConsumed decimal.NullDecimal `json:"fuel_consumed"`

	// IngestedAt is when the service received the trip (audit trail).
	// Set by the ingestion service, not the client.
	IngestedAt time.Time `json:"ingested_at"`

	// IngestSeq is a monotonic sequence number assigned on ingestion.
	// Set by database (BIGSERIAL), not exposed in the public API.
	IngestSeq int64 `json:"-"`
}

// Validate ensures the trip has all required attributes.
func (t *TripRecord) Validate() error {
	if t.VehicleID == "" {
		return fmt.Errorf("vehicle_id is required")
	}

	if t.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}

	if !t.EndTime.IsZero() && t.EndTime.Before(t.StartTime) {
		return fmt.Errorf("end_time must not be before start_time")
	}

	if t.Distance.Valid && t.Distance.Decimal.IsNegative() {
		return fmt.Errorf("distance must not be negative")
	}

	return nil
}

// Duration returns the trip duration in whole minutes.
// A trip missing either timestamp contributes zero duration.
func (t *TripRecord) Duration() int64 {
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return 0
	}
	return int64(t.EndTime.Sub(t.StartTime) / time.Minute)
}
