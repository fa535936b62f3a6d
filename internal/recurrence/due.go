package recurrence

import (
	"slices"
	"time"
)

// IsDue reports whether a task with policy p is due on date. completions are
// the timestamps of the task's own completions by anyone; rejected
// completions must not be passed. Only date's calendar day matters, so the
// answer for a given date never depends on the current time.
//
// Flexible tasks look at the latest completion on or before date, counted in
// whole calendar days: done on day D, the task is due again on D+Interval+1.
func (p Policy) IsDue(date time.Time, completions []time.Time) bool {
	switch p.Kind {
	case KindOnce:
		return len(completions) == 0

	case KindFlexible:
		day := DayNumber(date)
		last, found := 0, false
		for _, c := range completions {
			n := DayNumber(c.In(date.Location()))
			if n > day {
				continue
			}
			if !found || n > last {
				last, found = n, true
			}
		}
		if !found {
			return true
		}
		return day-last > p.Interval

	default:
		if len(p.Days) == 0 {
			return true
		}
		return slices.Contains(p.Days, WeekdayOf(date))
	}
}
