// Package fiscal computes reporting periods on the September-aligned state
// fiscal calendar. The fiscal year rolls over on September 1, so September
// 2024 through August 2025 is fiscal year 2025.
package fiscal

import (
	"fmt"
	"time"
)

// Period identifies one reporting window: a fiscal year plus an optional
// quarter. Quarter 0 means the whole fiscal year.
type Period struct {
	FiscalYear int
	Quarter    int
	Start      time.Time
	End        time.Time
}

// FullYear reports whether the period covers the whole fiscal year.
func (p Period) FullYear() bool {
	return p.Quarter == 0
}

// Label renders the period tag used in file names, e.g. "FY2025_Q3" or
// "FY2025" for a full-year period.
func (p Period) Label() string {
	if p.FullYear() {
		return fmt.Sprintf("FY%d", p.FiscalYear)
	}
	return fmt.Sprintf("FY%d_Q%d", p.FiscalYear, p.Quarter)
}

// Contains reports whether a date falls inside the period, inclusive on both
// ends. The zero time never falls inside any period.
func (p Period) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(p.Start) && !t.After(p.End)
}

// FiscalYearFor returns the fiscal year a calendar date belongs to.
func FiscalYearFor(t time.Time) int {
	if t.Month() >= time.September {
		return t.Year() + 1
	}
	return t.Year()
}

// FiscalYearDates returns the first and last day of a fiscal year.
func FiscalYearDates(fy int) (time.Time, time.Time) {
	start := time.Date(fy-1, time.September, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(fy, time.August, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

// QuarterDates returns the first and last day of a quarter within a fiscal
// year. Q2 always ends February 28; the fixed end date is retained from the
// production schedule even in leap years. Quarter 0 or 4 yields the full
// fiscal year bounds.
func QuarterDates(fy, quarter int) (time.Time, time.Time) {
	switch quarter {
	case 1:
		return time.Date(fy-1, time.September, 1, 0, 0, 0, 0, time.UTC),
			time.Date(fy-1, time.November, 30, 0, 0, 0, 0, time.UTC)
	case 2:
		return time.Date(fy-1, time.December, 1, 0, 0, 0, 0, time.UTC),
			time.Date(fy, time.February, 28, 0, 0, 0, 0, time.UTC)
	case 3:
		return time.Date(fy, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(fy, time.May, 31, 0, 0, 0, 0, time.UTC)
	default:
		return FiscalYearDates(fy)
	}
}

// PeriodFor derives the reporting period from a run date. Runs report on the
// most recently closed quarter: a December run reports Q1, a March run Q2, a
// June run Q3, and a September run Q4. September through November runs report
// against the previous fiscal year. A run on or after September 20 reports
// the full just-closed fiscal year instead of its Q4.
func PeriodFor(runDate time.Time) Period {
	fy := FiscalYearFor(runDate)
	if runDate.Month() >= time.September && runDate.Month() <= time.November {
		fy--
	}

	var quarter int
	switch runDate.Month() {
	case time.December, time.January, time.February:
		quarter = 1
	case time.March, time.April, time.May:
		quarter = 2
	case time.June, time.July, time.August:
		quarter = 3
	default:
		quarter = 4
	}

	if runDate.Month() == time.September && runDate.Day() >= 20 {
		quarter = 0
	}

	start, end := QuarterDates(fy, quarter)
	return Period{FiscalYear: fy, Quarter: quarter, Start: start, End: end}
}
