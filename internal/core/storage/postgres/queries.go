package postgres

// SQL queries for trip fact storage.

const (
	// querySaveTrip appends an immutable trip fact.
	// RETURNING retrieves the auto-generated ingest_seq so callers observe
	// the total ingestion order.
	querySaveTrip = `
		INSERT INTO trip_records (
			id, vehicle_id, vehicle_name, start_time, end_time, distance,
			start_latitude, start_longitude, end_latitude, end_longitude,
			fuel_consumed, ingested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ingest_seq
	`

	tripColumns = `
		id, vehicle_id, vehicle_name, start_time, end_time, distance,
		start_latitude, start_longitude, end_latitude, end_longitude,
		fuel_consumed, ingested_at, ingest_seq
	`

	queryFindAllTrips = `
		SELECT ` + tripColumns + `
		FROM trip_records
		ORDER BY start_time ASC, ingest_seq ASC
	`

	queryFindTripsByVehicle = `
		SELECT ` + tripColumns + `
		FROM trip_records
		WHERE vehicle_id = $1
		ORDER BY start_time ASC, ingest_seq ASC
	`

	// queryFindTripsInRange fetches trips starting in the inclusive
	// [start, end] window. An empty vehicle_id argument matches the whole
	// fleet, so one statement serves both the per-vehicle and fleet-wide
	// rollup fetches.
	queryFindTripsInRange = `
		SELECT ` + tripColumns + `
		FROM trip_records
		WHERE ($1 = '' OR vehicle_id = $1)
		  AND start_time >= $2
		  AND start_time <= $3
		ORDER BY start_time ASC, ingest_seq ASC
	`

	// querySumDistance computes the scalar distance aggregate the
	// running-statistics maintainer depends on. NULL distances drop out of
	// SUM naturally; the window is half-open and each bound is optional.
	querySumDistance = `
		SELECT COALESCE(SUM(distance), 0)
		FROM trip_records
		WHERE vehicle_id = $1
		  AND ($2::timestamptz IS NULL OR start_time >= $2)
		  AND ($3::timestamptz IS NULL OR start_time < $3)
	`

	queryCountTrips = `
		SELECT COUNT(*)
		FROM trip_records
		WHERE vehicle_id = $1
		  AND ($2::timestamptz IS NULL OR start_time >= $2)
		  AND ($3::timestamptz IS NULL OR start_time < $3)
	`

	// queryDistinctVehicles enumerates the vehicles a batch sweep must
	// touch. The most recent trip in the window supplies the display name.
	queryDistinctVehicles = `
		SELECT DISTINCT ON (vehicle_id) vehicle_id, vehicle_name
		FROM trip_records
		WHERE start_time >= $1
		  AND start_time <= $2
		ORDER BY vehicle_id ASC, start_time DESC
	`
)
