package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fleetlab/fleet-analytics/internal/core/stats"
	"github.com/fleetlab/fleet-analytics/internal/core/storage"
)

// Service builds fleet-wide summaries over the trip facts and the
// precomputed rollups.
type Service struct {
	trips   storage.TripStore
	rollups storage.RollupStore
	nowFn   func() time.Time
}

func NewService(trips storage.TripStore, rollups storage.RollupStore) *Service {
	if trips == nil {
		panic("summary: trip store must not be nil")
	}
	if rollups == nil {
		panic("summary: rollup store must not be nil")
	}
	return &Service{
		trips:   trips,
		rollups: rollups,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// LiveSummary computes every figure from a full scan of the fact stream.
// Exact but O(trips); the cached variant trades the weekday and month
// histograms for precomputed rollups.
func (s *Service) LiveSummary(ctx context.Context) (*FleetSummaryResponse, error) {
	trips, err := s.trips.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch trips: %w", err)
	}

	totals := stats.Aggregate(trips)
	return &FleetSummaryResponse{
		TotalTrips:      totals.TripCount,
		TotalDistance:   totals.TotalDistance,
		AverageDistance: totals.AvgDistance,
		TotalDuration:   totals.TotalDuration,
		AverageDuration: totals.AvgDuration,
		TripsByHour:     stats.CountByHour(trips),
		TripsByWeekday:  stats.CountByWeekday(trips),
		TripsByMonth:    stats.CountByMonth(trips),
		Source:          SourceLive,
		GeneratedAt:     s.nowFn(),
	}, nil
}

// CachedSummary serves the weekday histogram from the last seven daily
// rollups and the month histogram from the current year's monthly rollups.
// The overall totals and the hour histogram have no rollup representation,
// so they stay live.
//
// Days and months without a rollup record contribute zero, which makes a
// summary taken before the first batch run degrade to zero histograms
// instead of failing.
func (s *Service) CachedSummary(ctx context.Context) (*FleetSummaryResponse, error) {
	trips, err := s.trips.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch trips: %w", err)
	}
	totals := stats.Aggregate(trips)

	now := s.nowFn()

	weekday, err := s.weekdayFromDailyRollups(ctx, now)
	if err != nil {
		return nil, err
	}
	monthly, err := s.monthsFromMonthlyRollups(ctx, now.Year())
	if err != nil {
		return nil, err
	}

	return &FleetSummaryResponse{
		TotalTrips:      totals.TripCount,
		TotalDistance:   totals.TotalDistance,
		AverageDistance: totals.AvgDistance,
		TotalDuration:   totals.TotalDuration,
		AverageDuration: totals.AvgDuration,
		TripsByHour:     stats.CountByHour(trips),
		TripsByWeekday:  weekday,
		TripsByMonth:    monthly,
		Source:          SourceCached,
		GeneratedAt:     now,
	}, nil
}

// weekdayFromDailyRollups maps the last seven daily rollups onto weekday
// buckets. Seven calendar days hit each weekday exactly once, so a bucket is
// either one day's trip count or zero.
func (s *Service) weekdayFromDailyRollups(ctx context.Context, now time.Time) (map[string]int64, error) {
	end := stats.Midnight(now)
	start := end.AddDate(0, 0, -6)

	rollups, err := s.rollups.ListDailyRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch daily rollups: %w", err)
	}

	histogram := stats.NewWeekdayHistogram()
	for _, rollup := range rollups {
		histogram[stats.WeekdayTag(rollup.StatDate)] = rollup.TripCount
	}

	if len(rollups) < 7 {
		slog.Debug("[Summary] Weekday histogram has missing days",
			"days_found", len(rollups),
			"window_start", start.Format(time.DateOnly),
		)
	}
	return histogram, nil
}

// monthsFromMonthlyRollups maps the current year's monthly rollups onto the
// twelve month buckets.
func (s *Service) monthsFromMonthlyRollups(ctx context.Context, year int) (map[int]int64, error) {
	rollups, err := s.rollups.ListMonthlyByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly rollups: %w", err)
	}

	histogram := stats.NewMonthHistogram()
	for _, rollup := range rollups {
		if rollup.Month < 1 || rollup.Month > 12 {
			continue
		}
		histogram[rollup.Month] = rollup.TripCount
	}
	return histogram, nil
}
