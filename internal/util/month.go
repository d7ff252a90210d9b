package util

import (
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
)

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextMonth returns the year and month for the following month
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// Date truncates t to a UTC calendar date
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateAnchorDay checks that a cycle anchor day exists in every month
func ValidateAnchorDay(anchorDay int) error {
	if anchorDay < 1 || anchorDay > 28 {
		return domain.ErrInvalidAnchor
	}
	return nil
}

// CycleStart returns the start of the budget cycle containing reference.
// Cycles begin on anchorDay; a reference before the anchor belongs to the
// cycle that started in the previous month (December of the prior year for January).
func CycleStart(reference time.Time, anchorDay int) time.Time {
	year, month := reference.Year(), int(reference.Month())
	if reference.Day() < anchorDay {
		year, month = PreviousMonth(year, month)
	}
	return time.Date(year, time.Month(month), anchorDay, 0, 0, 0, 0, time.UTC)
}

// PriorCycleStart steps back exactly one cycle from cycleStart
func PriorCycleStart(cycleStart time.Time, anchorDay int) time.Time {
	year, month := PreviousMonth(cycleStart.Year(), int(cycleStart.Month()))
	return time.Date(year, time.Month(month), anchorDay, 0, 0, 0, 0, time.UTC)
}

// CycleEnd returns the last day of the cycle starting at cycleStart
func CycleEnd(cycleStart time.Time) time.Time {
	return cycleStart.AddDate(0, 1, -1)
}

// DecisionKeyFor returns the (year, month) under which a cycle's decisions are stored.
// Calendar-month cycles are stored under their own month. A cycle starting
// mid-month is stored under the following month, which holds most of its days.
func DecisionKeyFor(cycleStart time.Time, anchorDay int) (int, int) {
	year, month := cycleStart.Year(), int(cycleStart.Month())
	if anchorDay == 1 {
		return year, month
	}
	return NextMonth(year, month)
}
