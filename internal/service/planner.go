// internal/service/planner.go
package service

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Period is one generation window of a campaign.
type Period struct {
	Index int
	Start time.Time
}

// PeriodDays coerces the stored execution period to a positive day count.
// Non-numeric or non-positive values default to 1 (daily).
func PeriodDays(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PostsPerPeriod bounds post density between 3 and 5 regardless of period
// length: min(5, max(3, periodDays/2)).
func PostsPerPeriod(periodDays int) int {
	n := periodDays / 2
	if n < 3 {
		n = 3
	}
	if n > 5 {
		n = 5
	}
	return n
}

// TotalPeriods = floor(durationDays/periodDays) + 1. A campaign always has
// at least its first period.
func TotalPeriods(start, end time.Time, periodDays int) int {
	return daysBetween(start, end)/periodDays + 1
}

// PlanPeriods computes the period boundaries for a campaign. Period k starts
// at start_date + k*periodDays. Pure function, no side effects.
func PlanPeriods(start, end time.Time, executionPeriod string) []Period {
	days := PeriodDays(executionPeriod)
	total := TotalPeriods(start, end, days)

	periods := make([]Period, 0, total)
	for k := 0; k < total; k++ {
		periods = append(periods, Period{
			Index: k,
			Start: dateOf(start).AddDate(0, 0, k*days),
		})
	}
	return periods
}

// dateOf truncates a timestamp to its calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysBetween(start, end time.Time) int {
	// Round to survive DST-shortened days.
	return int(math.Round(dateOf(end).Sub(dateOf(start)).Hours() / 24))
}
