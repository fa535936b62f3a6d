package scoring

import (
	"slices"
	"time"

	"github.com/dukerupert/fantastictask/internal/recurrence"
)

// Streak summarizes consecutive calendar days with at least one counted completion.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// ComputeStreak counts runs of consecutive days among dates, interpreted in
// loc. The current streak is the run ending on asOf, or on the day before
// asOf when nothing has been done yet today. Dates after asOf are ignored.
func ComputeStreak(dates []time.Time, asOf time.Time, loc *time.Location) Streak {
	today := recurrence.DayNumber(asOf.In(loc))

	days := make([]int, 0, len(dates))
	for _, d := range dates {
		n := recurrence.DayNumber(d.In(loc))
		if n <= today {
			days = append(days, n)
		}
	}
	if len(days) == 0 {
		return Streak{}
	}
	slices.Sort(days)
	days = slices.Compact(days)

	var s Streak
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]+1 {
			run++
			continue
		}
		s.Longest = max(s.Longest, run)
		run = 1
	}
	s.Longest = max(s.Longest, run)

	if last := days[len(days)-1]; last == today || last == today-1 {
		s.Current = run
	}
	return s
}
