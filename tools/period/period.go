package period

import (
	"fmt"
	"time"
)

// Location is the fixed local time zone all readings are bucketed in.
// Sensors report in UTC; the dashboard's calendar days are UTC+8, so a
// reading just before local midnight must land in the correct local day.
var Location = time.FixedZone("UTC+8", 8*60*60)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
	yearLayout  = "2006"
)

// DayStart returns local midnight of the day containing t.
func DayStart(t time.Time) time.Time {
	lt := t.In(Location)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Location)
}

// WeekStart returns local midnight of the Monday of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	day := DayStart(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns local midnight of the Sunday closing the ISO week containing t.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// MonthStart returns local midnight of the first day of the month containing t.
func MonthStart(t time.Time) time.Time {
	lt := t.In(Location)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, Location)
}

// YearStart returns local midnight of January 1st of the year containing t.
func YearStart(t time.Time) time.Time {
	lt := t.In(Location)
	return time.Date(lt.Year(), 1, 1, 0, 0, 0, 0, Location)
}

// DayToken formats the daily period token, e.g. "2026-04-07".
func DayToken(t time.Time) string {
	return DayStart(t).Format(dayLayout)
}

// WeekToken formats the weekly period token as an explicit date range,
// e.g. "2026-04-06_to_2026-04-12". Both write paths use this form.
func WeekToken(t time.Time) string {
	start := WeekStart(t)
	return fmt.Sprintf("%s_to_%s", start.Format(dayLayout), start.AddDate(0, 0, 6).Format(dayLayout))
}

// MonthToken formats the monthly period token, e.g. "2026-04".
func MonthToken(t time.Time) string {
	return MonthStart(t).Format(monthLayout)
}

// YearToken formats the yearly period token, e.g. "2026".
func YearToken(t time.Time) string {
	return YearStart(t).Format(yearLayout)
}

// DaysOfWeek lists the 7 local-midnight days of the ISO week containing t,
// Monday first.
func DaysOfWeek(t time.Time) []time.Time {
	start := WeekStart(t)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// DaysOfMonth lists every local-midnight day of the month containing t.
func DaysOfMonth(t time.Time) []time.Time {
	start := MonthStart(t)
	n := DaysInMonth(t)
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// MonthsOfYear lists the 12 month-start instants of the year containing t.
func MonthsOfYear(t time.Time) []time.Time {
	start := YearStart(t)
	months := make([]time.Time, 12)
	for i := range months {
		months[i] = start.AddDate(0, i, 0)
	}
	return months
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	start := MonthStart(t)
	return start.AddDate(0, 1, 0).Add(-time.Hour).Day()
}

// SameMonth reports whether a and b fall in the same local calendar month.
func SameMonth(a, b time.Time) bool {
	la, lb := a.In(Location), b.In(Location)
	return la.Year() == lb.Year() && la.Month() == lb.Month()
}

// SameYear reports whether a and b fall in the same local calendar year.
func SameYear(a, b time.Time) bool {
	return a.In(Location).Year() == b.In(Location).Year()
}

// ParseDay parses a "2006-01-02" date string as local midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, s, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", s, err)
	}
	return t, nil
}
