package stats

import (
	"github.com/shopspring/decimal"

	v1 "github.com/fleetlab/fleet-analytics/internal/api/v1"
)

// Aggregate computes the shared five-field aggregate over a set of trips.
//
// Rounding contract (identical for every caller):
//   - average distance = total / count, 2 decimal places, half-up
//   - average duration = total / count, floor division
//   - both averages are zero when count is zero, never a division fault
//
// Trips with a null distance are excluded from the distance sum but still
// counted; trips missing a timestamp contribute zero duration.
func Aggregate(trips []*v1.TripRecord) Totals {
	totals := Totals{
		TotalDistance: decimal.Zero,
		AvgDistance:   decimal.Zero,
	}

	for _, trip := range trips {
		totals.TripCount++
		if trip.Distance.Valid {
			totals.TotalDistance = totals.TotalDistance.Add(trip.Distance.Decimal)
		}
		totals.TotalDuration += trip.Duration()
	}

	if totals.TripCount > 0 {
		count := decimal.NewFromInt(totals.TripCount)
		// DivRound rounds half away from zero, which is half-up for the
		// non-negative distances this engine sums.
		totals.AvgDistance = totals.TotalDistance.DivRound(count, 2)
		totals.AvgDuration = totals.TotalDuration / totals.TripCount
	}

	return totals
}
