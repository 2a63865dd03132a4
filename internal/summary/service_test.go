package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/fleetlab/fleet-analytics/internal/api/v1"
	"github.com/fleetlab/fleet-analytics/internal/core/stats"
	"github.com/fleetlab/fleet-analytics/internal/core/storage"
)

// fakeTripStore serves a canned fact stream.
type fakeTripStore struct {
	trips   []*v1.TripRecord
	findErr error
}

func (f *fakeTripStore) SaveTrip(_ context.Context, trip *v1.TripRecord) error {
	f.trips = append(f.trips, trip)
	return nil
}

func (f *fakeTripStore) FindAll(_ context.Context) ([]*v1.TripRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.trips, nil
}

func (f *fakeTripStore) FindByVehicle(_ context.Context, _ string) ([]*v1.TripRecord, error) {
	return f.trips, nil
}

func (f *fakeTripStore) FindInRange(_ context.Context, _ string, _, _ time.Time) ([]*v1.TripRecord, error) {
	return f.trips, nil
}

func (f *fakeTripStore) SumDistance(_ context.Context, _ string, _, _ *time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeTripStore) CountTrips(_ context.Context, _ string, _, _ *time.Time) (int64, error) {
	return int64(len(f.trips)), nil
}

func (f *fakeTripStore) DistinctVehicles(_ context.Context, _, _ time.Time) ([]storage.VehicleRef, error) {
	return nil, nil
}

// fakeRollupStore serves canned rollups for the cached summary paths.
type fakeRollupStore struct {
	daily      []*stats.DailyRollup
	monthly    []*stats.MonthlyRollup
	dailyErr   error
	monthlyErr error
}

func (f *fakeRollupStore) GetDaily(_ context.Context, _ time.Time) (*stats.DailyRollup, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeRollupStore) ListDailyRange(_ context.Context, start, end time.Time) ([]*stats.DailyRollup, error) {
	if f.dailyErr != nil {
		return nil, f.dailyErr
	}
	var out []*stats.DailyRollup
	for _, rollup := range f.daily {
		if rollup.StatDate.Before(start) || rollup.StatDate.After(end) {
			continue
		}
		out = append(out, rollup)
	}
	return out, nil
}

func (f *fakeRollupStore) UpsertDaily(_ context.Context, rollup *stats.DailyRollup) error {
	f.daily = append(f.daily, rollup)
	return nil
}

func (f *fakeRollupStore) GetWeekly(_ context.Context, _, _ int) (*stats.WeeklyRollup, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeRollupStore) UpsertWeekly(_ context.Context, _ *stats.WeeklyRollup) error {
	return nil
}

func (f *fakeRollupStore) GetMonthly(_ context.Context, _, _ int) (*stats.MonthlyRollup, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeRollupStore) ListMonthlyByYear(_ context.Context, year int) ([]*stats.MonthlyRollup, error) {
	if f.monthlyErr != nil {
		return nil, f.monthlyErr
	}
	var out []*stats.MonthlyRollup
	for _, rollup := range f.monthly {
		if rollup.Year == year {
			out = append(out, rollup)
		}
	}
	return out, nil
}

func (f *fakeRollupStore) UpsertMonthly(_ context.Context, rollup *stats.MonthlyRollup) error {
	f.monthly = append(f.monthly, rollup)
	return nil
}

func summaryTrip(start time.Time, minutes int, distance string) *v1.TripRecord {
	trip := &v1.TripRecord{
		VehicleID: "veh-1",
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
	}
	if distance != "" {
		trip.Distance = decimal.NewNullDecimal(decimal.RequireFromString(distance))
	}
	return trip
}

func newTestSummaryService(trips *fakeTripStore, rollups *fakeRollupStore, now time.Time) *Service {
	svc := NewService(trips, rollups)
	svc.nowFn = func() time.Time { return now }
	return svc
}

func TestLiveSummary(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	trips := &fakeTripStore{trips: []*v1.TripRecord{
		summaryTrip(time.Date(2026, 6, 8, 9, 15, 0, 0, time.UTC), 30, "50.00"),  // Monday 09h
		summaryTrip(time.Date(2026, 6, 9, 9, 45, 0, 0, time.UTC), 30, "50.00"),  // Tuesday 09h
		summaryTrip(time.Date(2026, 6, 14, 17, 0, 0, 0, time.UTC), 60, "55.50"), // Sunday 17h
	}}
	svc := newTestSummaryService(trips, &fakeRollupStore{}, now)

	resp, err := svc.LiveSummary(context.Background())
	require.NoError(t, err)

	require.Equal(t, SourceLive, resp.Source)
	require.Equal(t, now, resp.GeneratedAt)
	require.Equal(t, int64(3), resp.TotalTrips)
	require.True(t, resp.TotalDistance.Equal(decimal.RequireFromString("155.50")))
	require.True(t, resp.AverageDistance.Equal(decimal.RequireFromString("51.83")),
		"got %s", resp.AverageDistance)
	require.Equal(t, int64(120), resp.TotalDuration)
	require.Equal(t, int64(40), resp.AverageDuration)

	require.Equal(t, int64(2), resp.TripsByHour[9])
	require.Equal(t, int64(1), resp.TripsByHour[17])
	require.Equal(t, int64(1), resp.TripsByWeekday["Mon"])
	require.Equal(t, int64(1), resp.TripsByWeekday["Sun"])
	require.Equal(t, int64(0), resp.TripsByWeekday["Fri"])
	require.Equal(t, int64(3), resp.TripsByMonth[6])
}

func TestLiveSummary_EmptyFleet(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestSummaryService(&fakeTripStore{}, &fakeRollupStore{}, now)

	resp, err := svc.LiveSummary(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(0), resp.TotalTrips)
	require.True(t, resp.AverageDistance.IsZero())
	require.Len(t, resp.TripsByHour, 24)
	require.Len(t, resp.TripsByWeekday, 7)
	require.Len(t, resp.TripsByMonth, 12)
}

func TestCachedSummary_UsesRollupsForWeekdayAndMonth(t *testing.T) {
	// Monday 2026-06-15: the 7-day window is Tue 06-09 .. Mon 06-15.
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	trips := &fakeTripStore{trips: []*v1.TripRecord{
		summaryTrip(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC), 30, "10.00"),
	}}
	rollups := &fakeRollupStore{
		daily: []*stats.DailyRollup{
			{StatDate: time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC), TripCount: 4}, // Friday
			{StatDate: time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC), TripCount: 2}, // Sunday
			{StatDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), TripCount: 99}, // outside window
		},
		monthly: []*stats.MonthlyRollup{
			{Year: 2026, Month: 5, TripCount: 40},
			{Year: 2026, Month: 6, TripCount: 12},
			{Year: 2025, Month: 6, TripCount: 77}, // previous year excluded
		},
	}
	svc := newTestSummaryService(trips, rollups, now)

	resp, err := svc.CachedSummary(context.Background())
	require.NoError(t, err)

	require.Equal(t, SourceCached, resp.Source)

	// Weekday buckets come from the daily rollups, not the live trips.
	require.Equal(t, int64(4), resp.TripsByWeekday["Fri"])
	require.Equal(t, int64(2), resp.TripsByWeekday["Sun"])
	require.Equal(t, int64(0), resp.TripsByWeekday["Wed"])

	// Month buckets come from the current year's monthly rollups.
	require.Equal(t, int64(40), resp.TripsByMonth[5])
	require.Equal(t, int64(12), resp.TripsByMonth[6])
	require.Equal(t, int64(0), resp.TripsByMonth[1])

	// Overall figures and the hour histogram stay live.
	require.Equal(t, int64(1), resp.TotalTrips)
	require.Equal(t, int64(1), resp.TripsByHour[9])
}

func TestCachedSummary_NoRollupsDegradesToZeroHistograms(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	trips := &fakeTripStore{trips: []*v1.TripRecord{
		summaryTrip(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC), 30, "10.00"),
	}}
	svc := newTestSummaryService(trips, &fakeRollupStore{}, now)

	resp, err := svc.CachedSummary(context.Background())
	require.NoError(t, err)

	for _, count := range resp.TripsByWeekday {
		require.Equal(t, int64(0), count)
	}
	for _, count := range resp.TripsByMonth {
		require.Equal(t, int64(0), count)
	}
	// Live figures are unaffected by the missing rollups.
	require.Equal(t, int64(1), resp.TotalTrips)
}

func TestCachedSummary_PropagatesRollupErrors(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	trips := &fakeTripStore{trips: []*v1.TripRecord{
		summaryTrip(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC), 30, "10.00"),
	}}
	rollups := &fakeRollupStore{dailyErr: errors.New("db down")}
	svc := newTestSummaryService(trips, rollups, now)

	_, err := svc.CachedSummary(context.Background())
	require.ErrorContains(t, err, "fetch daily rollups")
}

func TestLiveSummary_PropagatesTripErrors(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestSummaryService(&fakeTripStore{findErr: errors.New("db down")}, &fakeRollupStore{}, now)

	_, err := svc.LiveSummary(context.Background())
	require.ErrorContains(t, err, "fetch trips")
}
