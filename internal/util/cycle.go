package util

import "time"

// Cycle is one budget cycle and the storage key of its decisions
type Cycle struct {
	Start time.Time
	End   time.Time
	Year  int
	Month int
}

// PriorCycles walks backwards from the cycle before the one containing reference.
// The walk stops once a candidate cycle starts before budgetStart, so it always
// terminates. Cycles are returned most recent first.
func PriorCycles(reference, budgetStart time.Time, anchorDay int) []Cycle {
	floor := Date(budgetStart)
	var cycles []Cycle

	start := PriorCycleStart(CycleStart(reference, anchorDay), anchorDay)
	for !start.Before(floor) {
		year, month := DecisionKeyFor(start, anchorDay)
		cycles = append(cycles, Cycle{
			Start: start,
			End:   CycleEnd(start),
			Year:  year,
			Month: month,
		})
		start = PriorCycleStart(start, anchorDay)
	}
	return cycles
}

// CyclesInPeriod counts the cycles of an inclusive budget period whose cycles
// are anchored on the period's start day. A period shorter than a cycle counts as one.
func CyclesInPeriod(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() >= start.Day() {
		months++
	}
	if months < 1 {
		return 1
	}
	return months
}
