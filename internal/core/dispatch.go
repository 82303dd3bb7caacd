package core

import "time"

// DispatchPolicy computes days_to_dispatch from the business-local clock.
type DispatchPolicy struct {
	Location   *time.Location
	CutoffHour int
}

// DaysToDispatch returns 2 on Saturday, 1 on Sunday, 0 on a weekday before
// the cut-off hour and 1 after it.
func (p DispatchPolicy) DaysToDispatch(now time.Time) int {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	switch local.Weekday() {
	case time.Saturday:
		return 2
	case time.Sunday:
		return 1
	}
	if local.Hour() < p.CutoffHour {
		return 0
	}
	return 1
}
