package service

import (
	"time"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
)

// expiresAt computes GRANT's expiry per spec §4.3.1: hour/day use exact
// durations; month/year use calendar arithmetic that preserves
// day-of-month and clamps to the target month's last day (so Jan 31 plus
// one month lands on Feb 28/29, not Mar 3 as time.AddDate would give).
func expiresAt(now time.Time, unit catalogdomain.PeriodUnit, value int64) *time.Time {
	switch unit {
	case catalogdomain.PeriodForever:
		return nil
	case catalogdomain.PeriodHours:
		t := now.Add(time.Duration(value) * time.Hour)
		return &t
	case catalogdomain.PeriodDays:
		t := now.Add(time.Duration(value) * 24 * time.Hour)
		return &t
	case catalogdomain.PeriodMonths:
		t := addCalendarMonths(now, int(value))
		return &t
	case catalogdomain.PeriodYears:
		t := addCalendarMonths(now, int(value)*12)
		return &t
	default:
		return nil
	}
}

func addCalendarMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	monthIndex := int(month) - 1 + months
	targetYear := year + floorDiv(monthIndex, 12)
	targetMonth := time.Month(floorMod(monthIndex, 12) + 1)

	if day > lastDayOfMonth(targetYear, targetMonth) {
		day = lastDayOfMonth(targetYear, targetMonth)
	}
	return time.Date(targetYear, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
