package period_test

import (
	"testing"
	"time"

	"github.com/thermalgrid/heatindex-analytics-worker/tools/period"
)

func TestDayTokenCrossesUTCMidnight(t *testing.T) {
	// 17:30 UTC is 01:30 the next day in UTC+8
	reading := time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC)

	token := period.DayToken(reading)
	if token != "2026-03-11" {
		t.Errorf("Expected token 2026-03-11, got %s", token)
	}

	start := period.DayStart(reading)
	if start.Hour() != 0 || start.Day() != 11 {
		t.Errorf("Expected local midnight of March 11, got %v", start)
	}
}

func TestWeekStartIsMonday(t *testing.T) {
	// 2026-04-08 is a Wednesday
	wednesday := time.Date(2026, 4, 8, 12, 0, 0, 0, period.Location)

	start := period.WeekStart(wednesday)
	if start.Weekday() != time.Monday {
		t.Errorf("Expected Monday, got %v", start.Weekday())
	}
	if start.Format("2006-01-02") != "2026-04-06" {
		t.Errorf("Expected week start 2026-04-06, got %v", start)
	}
}

func TestWeekStartOnSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday
	sunday := time.Date(2026, 4, 12, 8, 0, 0, 0, period.Location)

	start := period.WeekStart(sunday)
	if start.Format("2006-01-02") != "2026-04-06" {
		t.Errorf("Expected week start 2026-04-06, got %v", start)
	}
}

func TestWeekToken(t *testing.T) {
	wednesday := time.Date(2026, 4, 8, 12, 0, 0, 0, period.Location)

	token := period.WeekToken(wednesday)
	if token != "2026-04-06_to_2026-04-12" {
		t.Errorf("Expected 2026-04-06_to_2026-04-12, got %s", token)
	}
}

func TestDaysOfWeekCount(t *testing.T) {
	days := period.DaysOfWeek(time.Date(2026, 4, 8, 12, 0, 0, 0, period.Location))

	if len(days) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(days))
	}
	if days[0].Weekday() != time.Monday {
		t.Errorf("Expected first day Monday, got %v", days[0].Weekday())
	}
	if days[6].Weekday() != time.Sunday {
		t.Errorf("Expected last day Sunday, got %v", days[6].Weekday())
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := map[string]int{
		"2026-02-10": 28,
		"2024-02-10": 29,
		"2026-04-01": 30,
		"2026-12-31": 31,
	}

	for dateStr, want := range cases {
		day, err := period.ParseDay(dateStr)
		if err != nil {
			t.Fatalf("ParseDay(%s): %v", dateStr, err)
		}
		if got := period.DaysInMonth(day); got != want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", dateStr, got, want)
		}
	}
}

func TestMonthsOfYear(t *testing.T) {
	months := period.MonthsOfYear(time.Date(2026, 7, 15, 0, 0, 0, 0, period.Location))

	if len(months) != 12 {
		t.Fatalf("Expected 12 months, got %d", len(months))
	}
	if period.MonthToken(months[0]) != "2026-01" {
		t.Errorf("Expected first month 2026-01, got %s", period.MonthToken(months[0]))
	}
	if period.MonthToken(months[11]) != "2026-12" {
		t.Errorf("Expected last month 2026-12, got %s", period.MonthToken(months[11]))
	}
}

func TestMonthAndYearTokens(t *testing.T) {
	reading := time.Date(2026, 4, 8, 12, 0, 0, 0, period.Location)

	if got := period.MonthToken(reading); got != "2026-04" {
		t.Errorf("Expected 2026-04, got %s", got)
	}
	if got := period.YearToken(reading); got != "2026" {
		t.Errorf("Expected 2026, got %s", got)
	}
}

func TestParseDayInvalid(t *testing.T) {
	if _, err := period.ParseDay("not-a-date"); err == nil {
		t.Error("Expected error for invalid date string")
	}
}

func TestSameMonthAcrossZones(t *testing.T) {
	// 16:30 UTC on April 30 is already May 1st in UTC+8
	endOfApril := time.Date(2026, 4, 30, 16, 30, 0, 0, time.UTC)
	may := time.Date(2026, 5, 2, 0, 0, 0, 0, period.Location)

	if !period.SameMonth(endOfApril, may) {
		t.Error("Expected both instants to fall in local May")
	}
}
