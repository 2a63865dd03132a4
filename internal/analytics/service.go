package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/fleetlab/fleet-analytics/internal/api/v1"
	"github.com/fleetlab/fleet-analytics/internal/core/stats"
	"github.com/fleetlab/fleet-analytics/internal/core/storage"
)

// Service owns trip ingestion and the vehicle running-statistics lifecycle.
type Service struct {
	trips            storage.TripStore
	vehicleStats     storage.VehicleStatsStore
	maxBodySizeBytes int
	nowFn            func() time.Time
}

func NewService(trips storage.TripStore, vehicleStats storage.VehicleStatsStore, maxBodySizeMB int) *Service {
	if trips == nil {
		panic("analytics: trip store must not be nil")
	}
	if vehicleStats == nil {
		panic("analytics: vehicle stats store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		trips:            trips,
		vehicleStats:     vehicleStats,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// PersistTrip appends the trip fact. The statistics update is a separate
// step (OnTripIngested) so a statistics failure never rolls back the fact.
func (s *Service) PersistTrip(ctx context.Context, trip *v1.TripRecord) error {
	return s.trips.SaveTrip(ctx, trip)
}

// OnTripIngested recomputes and upserts the running statistics for
// (vehicleID, current year-month).
//
// This is a full recomputation through the store's scalar aggregates, not a
// counter increment: lifetime over the unbounded fact stream, the month over
// the half-open [first of month, first of next month) window. Out-of-order
// and backfilled facts are absorbed because every call rebuilds the snapshot
// from durable state.
func (s *Service) OnTripIngested(ctx context.Context, vehicleID, vehicleName string) error {
	now := s.nowFn()
	yearMonth := stats.YearMonth(now)

	record, err := s.vehicleStats.Get(ctx, vehicleID, yearMonth)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load vehicle statistics: %w", err)
		}
		record = &stats.VehicleStatistics{
			VehicleID:       vehicleID,
			VehicleName:     vehicleName,
			YearMonth:       yearMonth,
			TotalDistance:   decimal.Zero,
			MonthlyDistance: decimal.Zero,
		}
	}

	totalDistance, err := s.trips.SumDistance(ctx, vehicleID, nil, nil)
	if err != nil {
		return fmt.Errorf("sum lifetime distance: %w", err)
	}
	totalTrips, err := s.trips.CountTrips(ctx, vehicleID, nil, nil)
	if err != nil {
		return fmt.Errorf("count lifetime trips: %w", err)
	}

	monthStart, monthEnd := stats.MonthWindow(now)
	monthlyDistance, err := s.trips.SumDistance(ctx, vehicleID, &monthStart, &monthEnd)
	if err != nil {
		return fmt.Errorf("sum monthly distance: %w", err)
	}
	monthlyTrips, err := s.trips.CountTrips(ctx, vehicleID, &monthStart, &monthEnd)
	if err != nil {
		return fmt.Errorf("count monthly trips: %w", err)
	}

	record.TotalDistance = totalDistance
	record.TotalTrips = totalTrips
	record.MonthlyDistance = monthlyDistance
	record.MonthlyTrips = monthlyTrips
	record.UpdatedAt = now
	if record.VehicleName == "" {
		record.VehicleName = vehicleName
	}

	if err := s.vehicleStats.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upsert vehicle statistics: %w", err)
	}

	slog.Info("Vehicle statistics updated",
		"vehicle_id", vehicleID,
		"year_month", yearMonth,
		"total_distance", totalDistance,
		"monthly_distance", monthlyDistance,
	)
	return nil
}

// RecomputeForMonth rebuilds a vehicle's statistics for one historical
// year-month. A month with no trips for the vehicle is a silent no-op; the
// batch path never materializes empty records.
func (s *Service) RecomputeForMonth(ctx context.Context, vehicleID, yearMonth string) error {
	monthFirst, err := stats.ParseYearMonth(yearMonth)
	if err != nil {
		return fmt.Errorf("invalid year-month %q: %w", yearMonth, err)
	}
	period := stats.MonthPeriod(monthFirst.Year(), int(monthFirst.Month()))

	monthlyTrips, err := s.trips.FindInRange(ctx, vehicleID, period.Start, period.End)
	if err != nil {
		return fmt.Errorf("fetch monthly trips: %w", err)
	}
	if len(monthlyTrips) == 0 {
		slog.Debug("No trips for vehicle in month, skipping",
			"vehicle_id", vehicleID,
			"year_month", yearMonth,
		)
		return nil
	}

	monthTotals := stats.Aggregate(monthlyTrips)

	totalDistance, err := s.trips.SumDistance(ctx, vehicleID, nil, nil)
	if err != nil {
		return fmt.Errorf("sum lifetime distance: %w", err)
	}
	totalTrips, err := s.trips.CountTrips(ctx, vehicleID, nil, nil)
	if err != nil {
		return fmt.Errorf("count lifetime trips: %w", err)
	}

	record, err := s.vehicleStats.Get(ctx, vehicleID, yearMonth)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load vehicle statistics: %w", err)
		}
		record = &stats.VehicleStatistics{
			VehicleID: vehicleID,
			YearMonth: yearMonth,
		}
	}

	record.VehicleName = monthlyTrips[0].VehicleName
	record.TotalDistance = totalDistance
	record.TotalTrips = totalTrips
	record.MonthlyDistance = monthTotals.TotalDistance
	record.MonthlyTrips = monthTotals.TripCount
	record.UpdatedAt = s.nowFn()

	if err := s.vehicleStats.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upsert vehicle statistics: %w", err)
	}
	return nil
}

// RecomputeVehicleNow is the operator-triggered recompute for the current
// year-month. Unlike the batch sweeps, failures propagate to the caller.
func (s *Service) RecomputeVehicleNow(ctx context.Context, vehicleID string) error {
	return s.RecomputeForMonth(ctx, vehicleID, stats.YearMonth(s.nowFn()))
}

// GetVehicleStatistics returns the current-month statistics for one vehicle.
// A vehicle with no record yet gets a zero-valued response, not an error.
func (s *Service) GetVehicleStatistics(ctx context.Context, vehicleID string) (*VehicleStatisticsResponse, error) {
	yearMonth := stats.YearMonth(s.nowFn())

	record, err := s.vehicleStats.Get(ctx, vehicleID, yearMonth)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zeroStatisticsResponse(vehicleID, yearMonth), nil
		}
		return nil, fmt.Errorf("get vehicle statistics: %w", err)
	}

	return toStatisticsResponse(record), nil
}

// GetAllVehicleStatistics returns every vehicle's current-month statistics.
// No data is an empty collection, not an error.
func (s *Service) GetAllVehicleStatistics(ctx context.Context) ([]*VehicleStatisticsResponse, error) {
	yearMonth := stats.YearMonth(s.nowFn())

	records, err := s.vehicleStats.ListByYearMonth(ctx, yearMonth)
	if err != nil {
		return nil, fmt.Errorf("list vehicle statistics: %w", err)
	}

	responses := make([]*VehicleStatisticsResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toStatisticsResponse(record))
	}
	return responses, nil
}

// GetBatchVehicleStatistics resolves statistics for a set of vehicle ids.
// A failed or unknown vehicle yields the identical zero-valued shape. The
// batch read is error-tolerant by contract.
func (s *Service) GetBatchVehicleStatistics(ctx context.Context, vehicleIDs []string) []*VehicleStatisticsResponse {
	yearMonth := stats.YearMonth(s.nowFn())

	responses := make([]*VehicleStatisticsResponse, 0, len(vehicleIDs))
	for _, vehicleID := range vehicleIDs {
		resp, err := s.GetVehicleStatistics(ctx, vehicleID)
		if err != nil {
			slog.Warn("Vehicle statistics lookup failed, returning defaults",
				"vehicle_id", vehicleID,
				"error", err,
			)
			resp = zeroStatisticsResponse(vehicleID, yearMonth)
		}
		responses = append(responses, resp)
	}
	return responses
}

func toStatisticsResponse(record *stats.VehicleStatistics) *VehicleStatisticsResponse {
	return &VehicleStatisticsResponse{
		VehicleID:       record.VehicleID,
		VehicleName:     record.VehicleName,
		TotalDistance:   record.TotalDistance,
		MonthlyDistance: record.MonthlyDistance,
		YearMonth:       record.YearMonth,
		TotalTrips:      record.TotalTrips,
		MonthlyTrips:    record.MonthlyTrips,
	}
}

func zeroStatisticsResponse(vehicleID, yearMonth string) *VehicleStatisticsResponse {
	return &VehicleStatisticsResponse{
		VehicleID:       vehicleID,
		TotalDistance:   decimal.Zero,
		MonthlyDistance: decimal.Zero,
		YearMonth:       yearMonth,
	}
}
