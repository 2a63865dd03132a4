package summary

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary sources. Cached summaries substitute precomputed rollups for the
// weekday and month histograms; live summaries scan the fact stream for
// everything.
const (
	SourceLive   = "live"
	SourceCached = "cached"
)

// FleetSummaryResponse is the fleet-wide statistics read-model.
// Histogram maps always carry every bucket, zero-filled, so consumers can
// render fixed axes without defensive key checks.
type FleetSummaryResponse struct {
	TotalTrips      int64            `json:"total_trips"`
	TotalDistance   decimal.Decimal  `json:"total_distance"`
	AverageDistance decimal.Decimal  `json:"average_distance"`
	TotalDuration   int64            `json:"total_duration"`
	AverageDuration int64            `json:"average_duration"`
	TripsByHour     map[int]int64    `json:"trips_by_hour"`
	TripsByWeekday  map[string]int64 `json:"trips_by_weekday"`
	TripsByMonth    map[int]int64    `json:"trips_by_month"`
	Source          string           `json:"source"`
	GeneratedAt     time.Time        `json:"generated_at"`
}
