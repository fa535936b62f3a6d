package recurrence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind selects how a task repeats.
type Kind string

const (
	// KindOnce tasks are due until their first completion.
	KindOnce Kind = "once"
	// KindFixedDays tasks are due on listed weekdays, or every day when none are listed.
	KindFixedDays Kind = "fixed_days"
	// KindFlexible tasks are due once more than Interval days have passed since the last completion.
	KindFlexible Kind = "flexible"
)

var kindAliases = map[string]Kind{
	"once":            KindOnce,
	"fixed_days":      KindFixedDays,
	"daily":           KindFixedDays,
	"weekly_fixed":    KindFixedDays,
	"flexible":        KindFlexible,
	"weekly_flexible": KindFlexible,
}

// ParseKind accepts the canonical kind names and the older
// daily/weekly_fixed/weekly_flexible spellings. Empty means fixed days.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindFixedDays, nil
	}
	k, ok := kindAliases[s]
	if !ok {
		return "", fmt.Errorf("unknown recurrence type: %q", s)
	}
	return k, nil
}

// Policy is a task's recurrence configuration. The zero value behaves as
// FixedDays with no days, i.e. due every day.
type Policy struct {
	Kind     Kind      `json:"type"`
	Days     []Weekday `json:"days,omitempty"`
	Interval int       `json:"interval,omitempty"`
}

func Once() Policy {
	return Policy{Kind: KindOnce}
}

func FixedDays(days ...Weekday) Policy {
	return Policy{Kind: KindFixedDays, Days: days}
}

func FlexibleInterval(days int) Policy {
	return Policy{Kind: KindFlexible, Interval: days}
}

// Normalize validates p and returns a canonical copy: kind resolved, days
// sorted and deduplicated, fields that do not apply to the kind cleared.
func (p Policy) Normalize() (Policy, error) {
	kind, err := ParseKind(string(p.Kind))
	if err != nil {
		return Policy{}, err
	}

	switch kind {
	case KindOnce:
		return Once(), nil

	case KindFlexible:
		if p.Interval < 1 {
			return Policy{}, fmt.Errorf("flexible interval must be a positive number of days, got %d", p.Interval)
		}
		return FlexibleInterval(p.Interval), nil

	default:
		var days []Weekday
		for _, d := range p.Days {
			if !d.Valid() {
				return Policy{}, fmt.Errorf("invalid weekday: %d", int(d))
			}
			if !slices.Contains(days, d) {
				days = append(days, d)
			}
		}
		slices.Sort(days)
		return FixedDays(days...), nil
	}
}

// Parse reads the storage form produced by String, e.g. "ONCE",
// "DAYS=MO,WE", "DAYS" or "FLEX=7". An empty rule is every day.
func Parse(rule string) (Policy, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return FixedDays(), nil
	}

	key, val, hasVal := strings.Cut(rule, "=")
	switch key {
	case "ONCE":
		if hasVal {
			return Policy{}, fmt.Errorf("invalid rule: %q", rule)
		}
		return Once(), nil

	case "DAYS":
		p := FixedDays()
		if !hasVal || val == "" {
			return p, nil
		}
		for _, d := range strings.Split(val, ",") {
			wd, ok := dayNames[strings.TrimSpace(d)]
			if !ok {
				return Policy{}, fmt.Errorf("unknown day: %q", d)
			}
			p.Days = append(p.Days, wd)
		}
		return p.Normalize()

	case "FLEX":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return Policy{}, fmt.Errorf("invalid interval: %q", val)
		}
		return FlexibleInterval(n), nil

	default:
		return Policy{}, fmt.Errorf("unsupported rule: %q", rule)
	}
}

// String serializes the policy to its storage form.
func (p Policy) String() string {
	switch p.Kind {
	case KindOnce:
		return "ONCE"
	case KindFlexible:
		return fmt.Sprintf("FLEX=%d", p.Interval)
	default:
		if len(p.Days) == 0 {
			return "DAYS"
		}
		names := make([]string, 0, len(p.Days))
		for _, d := range p.Days {
			names = append(names, dayAbbrev[d])
		}
		return "DAYS=" + strings.Join(names, ",")
	}
}

// Describe returns a human-readable description of the policy.
func (p Policy) Describe() string {
	switch p.Kind {
	case KindOnce:
		return "Once"
	case KindFlexible:
		if p.Interval == 1 {
			return "Every day after last done"
		}
		return fmt.Sprintf("Every %d days after last done", p.Interval)
	default:
		if len(p.Days) == 0 || len(p.Days) == 7 {
			return "Every day"
		}
		names := make([]string, 0, len(p.Days))
		for _, d := range p.Days {
			names = append(names, d.String()[:3])
		}
		return "Every " + strings.Join(names, ", ")
	}
}
