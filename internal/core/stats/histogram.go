package stats

import (
	"time"

	v1 "github.com/fleetlab/fleet-analytics/internal/api/v1"
)

// WeekdayTags are the canonical bucket labels in ISO order, Monday first.
// The grouping key is the structural ISO weekday index; these tags are the
// wire representation. Display localization happens outside the core.
var WeekdayTags = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayTag maps a calendar day to its canonical bucket label.
func WeekdayTag(t time.Time) string {
	return WeekdayTags[ISOWeekdayIndex(t)]
}

// ISOWeekdayIndex maps a timestamp to 0..6 with Monday = 0.
func ISOWeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// NewHourHistogram returns all 24 hour buckets initialized to zero.
func NewHourHistogram() map[int]int64 {
	h := make(map[int]int64, 24)
	for hour := 0; hour < 24; hour++ {
		h[hour] = 0
	}
	return h
}

// NewWeekdayHistogram returns all 7 weekday buckets initialized to zero.
func NewWeekdayHistogram() map[string]int64 {
	h := make(map[string]int64, len(WeekdayTags))
	for _, tag := range WeekdayTags {
		h[tag] = 0
	}
	return h
}

// NewMonthHistogram returns all 12 month buckets initialized to zero.
func NewMonthHistogram() map[int]int64 {
	h := make(map[int]int64, 12)
	for month := 1; month <= 12; month++ {
		h[month] = 0
	}
	return h
}

// CountByHour buckets trips by the hour of their start time.
// Every hour key is present in the result regardless of data sparsity.
func CountByHour(trips []*v1.TripRecord) map[int]int64 {
	h := NewHourHistogram()
	for _, trip := range trips {
		if trip.StartTime.IsZero() {
			continue
		}
		h[trip.StartTime.Hour()]++
	}
	return h
}

// CountByWeekday buckets trips by the weekday of their start time.
func CountByWeekday(trips []*v1.TripRecord) map[string]int64 {
	h := NewWeekdayHistogram()
	for _, trip := range trips {
		if trip.StartTime.IsZero() {
			continue
		}
		h[WeekdayTag(trip.StartTime)]++
	}
	return h
}

// CountByMonth buckets trips by the calendar month of their start time.
func CountByMonth(trips []*v1.TripRecord) map[int]int64 {
	h := NewMonthHistogram()
	for _, trip := range trips {
		if trip.StartTime.IsZero() {
			continue
		}
		h[int(trip.StartTime.Month())]++
	}
	return h
}
