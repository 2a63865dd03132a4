package stats

import "time"

// yearMonthLayout is the canonical label for the running-statistics month key.
const yearMonthLayout = "2006-01"

// Period is an inclusive [Start, End] window over trip start times.
// Rollup windows end at 23:59:59 of their last day, matching the stored
// second-precision facts.
type Period struct {
	Start time.Time
	End   time.Time
}

// YearMonth formats the month containing t as its statistics key.
func YearMonth(t time.Time) string {
	return t.Format(yearMonthLayout)
}

// ParseYearMonth resolves a "2006-01" label back to the first instant of the
// month in UTC.
func ParseYearMonth(label string) (time.Time, error) {
	return time.Parse(yearMonthLayout, label)
}

// DayPeriod returns the inclusive window for one calendar day:
// [00:00:00, 23:59:59] of date.
func DayPeriod(date time.Time) Period {
	start := Midnight(date)
	return Period{Start: start, End: start.Add(24*time.Hour - time.Second)}
}

// WeekPeriod returns the inclusive window for the ISO week beginning at
// weekStart (a Monday): Monday 00:00:00 through Sunday 23:59:59.
func WeekPeriod(weekStart time.Time) Period {
	start := Midnight(weekStart)
	return Period{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Second)}
}

// MonthPeriod returns the inclusive window for a calendar month: the first
// day 00:00:00 through the last day 23:59:59. Month lengths are resolved by
// the calendar, not assumed.
func MonthPeriod(year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}
}

// MonthWindow returns the half-open [first of month, first of next month)
// window used by the running-statistics maintainer's scalar queries.
func MonthWindow(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Midnight truncates t to the start of its calendar day in UTC.
func Midnight(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PreviousDay resolves "yesterday" relative to now.
func PreviousDay(now time.Time) time.Time {
	return Midnight(now).AddDate(0, 0, -1)
}

// PreviousWeekStart resolves the Monday of the most recently completed ISO
// week before now. Called on a Monday it returns the previous Monday.
func PreviousWeekStart(now time.Time) time.Time {
	return WeekStart(Midnight(now).AddDate(0, 0, -7))
}

// WeekStart returns the Monday (previous or same) of t's ISO week.
func WeekStart(t time.Time) time.Time {
	day := Midnight(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return day.AddDate(0, 0, -offset)
}

// PreviousMonth resolves the calendar month immediately before now.
func PreviousMonth(now time.Time) (year, month int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

// ISOWeekKey returns the (ISO year, ISO week number) key for the week
// starting at weekStart. Week 1 can begin in the prior calendar year and the
// last week can spill into the next; the ISO year, not the calendar year,
// is the rollup key.
func ISOWeekKey(weekStart time.Time) (isoYear, weekNumber int) {
	return weekStart.ISOWeek()
}
