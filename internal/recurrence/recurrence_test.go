package recurrence

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekdayConvention(t *testing.T) {
	// 2024-01-07 is a Sunday; the week runs Sunday=0 through Saturday=6.
	start := day(2024, 1, 7)
	for i := 0; i < 7; i++ {
		got := WeekdayOf(start.AddDate(0, 0, i))
		if int(got) != i {
			t.Errorf("WeekdayOf(%s) = %d, want %d", start.AddDate(0, 0, i).Format("Mon 2006-01-02"), got, i)
		}
	}
	if Sunday != 0 || Saturday != 6 {
		t.Fatalf("Sunday=%d Saturday=%d, want 0 and 6", Sunday, Saturday)
	}
}

func TestWeekdayUsesDateLocation(t *testing.T) {
	// 23:30 Saturday in New York is already Sunday in UTC.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	sat := time.Date(2024, 1, 6, 23, 30, 0, 0, ny)
	if WeekdayOf(sat) != Saturday {
		t.Errorf("WeekdayOf = %v, want Saturday", WeekdayOf(sat))
	}
	if WeekdayOf(sat.UTC()) != Sunday {
		t.Errorf("WeekdayOf(UTC) = %v, want Sunday", WeekdayOf(sat.UTC()))
	}
}

func TestFixedDaysEmptyDueEveryDay(t *testing.T) {
	p := FixedDays()
	start := day(2024, 3, 1)
	for i := 0; i < 7; i++ {
		if !p.IsDue(start.AddDate(0, 0, i), nil) {
			t.Errorf("expected due on %s", start.AddDate(0, 0, i).Format("Mon"))
		}
	}
}

func TestZeroPolicyDueEveryDay(t *testing.T) {
	var p Policy
	start := day(2024, 3, 1)
	for i := 0; i < 7; i++ {
		if !p.IsDue(start.AddDate(0, 0, i), []time.Time{start}) {
			t.Errorf("expected legacy policy due on %s", start.AddDate(0, 0, i).Format("Mon"))
		}
	}
}

func TestFixedDaysMondayWednesday(t *testing.T) {
	p := FixedDays(Monday, Wednesday)
	start := day(2024, 1, 1) // Monday
	for i := 0; i < 28; i++ {
		d := start.AddDate(0, 0, i)
		want := d.Weekday() == time.Monday || d.Weekday() == time.Wednesday
		if got := p.IsDue(d, nil); got != want {
			t.Errorf("IsDue(%s) = %v, want %v", d.Format("Mon 2006-01-02"), got, want)
		}
	}
}

func TestFixedDaysWeekdaysSkipsSaturday(t *testing.T) {
	p := FixedDays(Monday, Tuesday, Wednesday, Thursday, Friday)
	sat := day(2024, 1, 6)
	if WeekdayOf(sat) != Saturday {
		t.Fatalf("fixture is not a Saturday")
	}
	if p.IsDue(sat, nil) {
		t.Error("weekday task should not be due on Saturday")
	}
}

func TestFixedDaysIgnoresHistory(t *testing.T) {
	p := FixedDays(Tuesday)
	tue := day(2024, 1, 2)
	if !p.IsDue(tue, []time.Time{tue.Add(8 * time.Hour)}) {
		t.Error("fixed-day tasks stay due regardless of completions")
	}
}

func TestOnce(t *testing.T) {
	p := Once()
	d := day(2024, 5, 10)
	if !p.IsDue(d, nil) {
		t.Error("once task should be due before first completion")
	}
	done := []time.Time{d.Add(10 * time.Hour)}
	for _, when := range []time.Time{d.AddDate(0, 0, -3), d, d.AddDate(0, 0, 30)} {
		if p.IsDue(when, done) {
			t.Errorf("once task should never be due after completion (checked %s)", when.Format("2006-01-02"))
		}
	}
}

func TestFlexibleNeverCompleted(t *testing.T) {
	if !FlexibleInterval(7).IsDue(day(2024, 1, 1), nil) {
		t.Error("flexible task without completions should be due")
	}
}

func TestFlexibleBoundary(t *testing.T) {
	p := FlexibleInterval(7)
	done := []time.Time{time.Date(2024, 1, 1, 18, 45, 0, 0, time.UTC)}

	for i := 0; i <= 7; i++ {
		d := day(2024, 1, 1).AddDate(0, 0, i)
		if p.IsDue(d, done) {
			t.Errorf("not expected due on D+%d (%s)", i, d.Format("2006-01-02"))
		}
	}
	if !p.IsDue(day(2024, 1, 9), done) {
		t.Error("expected due on D+8 (2024-01-09)")
	}
}

func TestFlexibleIgnoresTimeOfDay(t *testing.T) {
	p := FlexibleInterval(7)
	// Completed late on Jan 1, checked early on Jan 9: only 7 days and a few
	// hours elapsed, but 8 calendar days separate the dates.
	done := []time.Time{time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)}
	if !p.IsDue(time.Date(2024, 1, 9, 0, 1, 0, 0, time.UTC), done) {
		t.Error("expected due on D+8 regardless of time of day")
	}
	// Exactly 7 days + epsilon in elapsed time but still D+7 on the calendar.
	if p.IsDue(time.Date(2024, 1, 8, 23, 59, 59, 0, time.UTC), []time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}) {
		t.Error("expected not due on D+7 even when more than 7x24h elapsed")
	}
}

func TestFlexibleAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// DST starts 2024-03-10; calendar-day counting is unaffected.
	done := []time.Time{time.Date(2024, 3, 5, 9, 0, 0, 0, ny)}
	p := FlexibleInterval(7)
	if p.IsDue(time.Date(2024, 3, 12, 9, 0, 0, 0, ny), done) {
		t.Error("D+7 across DST should not be due")
	}
	if !p.IsDue(time.Date(2024, 3, 13, 0, 0, 0, 0, ny), done) {
		t.Error("D+8 across DST should be due")
	}
}

func TestFlexibleUsesLatestCompletionOnOrBeforeDate(t *testing.T) {
	p := FlexibleInterval(3)
	done := []time.Time{
		day(2024, 2, 1),
		day(2024, 2, 10),
	}
	// Looking back at Feb 6: the Feb 10 completion had not happened yet.
	if !p.IsDue(day(2024, 2, 6), done) {
		t.Error("expected due on Feb 6 based on the Feb 1 completion")
	}
	if p.IsDue(day(2024, 2, 12), done) {
		t.Error("expected not due on Feb 12 based on the Feb 10 completion")
	}
}

func TestNormalize(t *testing.T) {
	p, err := Policy{Kind: "weekly_fixed", Days: []Weekday{Friday, Monday, Friday}}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Kind != KindFixedDays {
		t.Errorf("Kind = %q, want %q", p.Kind, KindFixedDays)
	}
	if len(p.Days) != 2 || p.Days[0] != Monday || p.Days[1] != Friday {
		t.Errorf("Days = %v, want [Monday Friday]", p.Days)
	}

	p, err = Policy{Kind: "weekly_flexible", Interval: 7, Days: []Weekday{Monday}}.Normalize()
	if err != nil {
		t.Fatalf("Normalize flexible: %v", err)
	}
	if p.Kind != KindFlexible || p.Interval != 7 || p.Days != nil {
		t.Errorf("got %+v, want flexible/7 without days", p)
	}

	p, err = Policy{Kind: "daily"}.Normalize()
	if err != nil || p.Kind != KindFixedDays || len(p.Days) != 0 {
		t.Errorf("daily alias: got %+v, %v", p, err)
	}
}

func TestNormalizeErrors(t *testing.T) {
	bad := []Policy{
		{Kind: "hourly"},
		{Kind: KindFlexible},
		{Kind: KindFlexible, Interval: -1},
		{Kind: KindFixedDays, Days: []Weekday{7}},
		{Kind: KindFixedDays, Days: []Weekday{-1}},
	}
	for _, p := range bad {
		if _, err := p.Normalize(); err == nil {
			t.Errorf("Normalize(%+v) expected error", p)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	policies := []Policy{
		Once(),
		FixedDays(),
		FixedDays(Sunday, Saturday),
		FixedDays(Monday, Wednesday, Friday),
		FlexibleInterval(7),
	}
	for _, p := range policies {
		s := p.String()
		got, err := Parse(s)
		if err != nil {
			t.Errorf("Parse(%q): %v", s, err)
			continue
		}
		if got.String() != s {
			t.Errorf("round trip %q -> %q", s, got.String())
		}
	}
}

func TestParseEmptyIsEveryDay(t *testing.T) {
	p, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Kind != KindFixedDays || len(p.Days) != 0 {
		t.Errorf("got %+v, want every day", p)
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"FREQ=DAILY", "DAYS=XX", "FLEX=0", "FLEX=abc", "ONCE=1"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error", s)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		p    Policy
		want string
	}{
		{Once(), "Once"},
		{FixedDays(), "Every day"},
		{FixedDays(Monday, Wednesday), "Every Mon, Wed"},
		{FlexibleInterval(1), "Every day after last done"},
		{FlexibleInterval(7), "Every 7 days after last done"},
	}
	for _, tt := range tests {
		if got := tt.p.Describe(); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestDayNumber(t *testing.T) {
	if DayNumber(day(1970, 1, 1)) != 0 {
		t.Error("epoch should be day 0")
	}
	a := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	if DayNumber(b)-DayNumber(a) != 8 {
		t.Errorf("diff = %d, want 8", DayNumber(b)-DayNumber(a))
	}
}
