package recurrence

import (
	"fmt"
	"time"
)

// Weekday indexes days the way stored task data and day pickers do:
// 0 is Sunday and 6 is Saturday. It matches time.Weekday numerically.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = map[string]Weekday{
	"SU": Sunday,
	"MO": Monday,
	"TU": Tuesday,
	"WE": Wednesday,
	"TH": Thursday,
	"FR": Friday,
	"SA": Saturday,
}

var dayAbbrev = map[Weekday]string{
	Sunday:    "SU",
	Monday:    "MO",
	Tuesday:   "TU",
	Wednesday: "WE",
	Thursday:  "TH",
	Friday:    "FR",
	Saturday:  "SA",
}

// WeekdayOf returns the weekday of t's calendar date in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return time.Weekday(d).String()
}

// DayNumber counts calendar days from 1970-01-01 to t's date in t's own
// location. Time of day and DST transitions do not affect it.
func DayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// StartOfDay returns midnight of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
