// Package scoring holds the pure point arithmetic: overtime bonus points and
// completion streaks. Nothing here touches storage or returns errors.
package scoring

import "fmt"

// MinutesPerBonusPoint is how many minutes over the estimate earn one bonus point.
const MinutesPerBonusPoint = 5

// Bonus is the result of CalculateBonusPoints. Explanation is empty when
// BonusPoints is zero.
type Bonus struct {
	BonusPoints     int    `json:"bonus_points"`
	OvertimeMinutes int    `json:"overtime_minutes"`
	EstimateMinutes int    `json:"estimated_minutes"`
	Explanation     string `json:"explanation,omitempty"`
}

// Total is the result of CalculateTotalPoints.
type Total struct {
	TotalPoints int    `json:"total_points"`
	BonusPoints int    `json:"bonus_points"`
	Explanation string `json:"explanation,omitempty"`
}

// CalculateBonusPoints awards one point per full MinutesPerBonusPoint minutes
// spent beyond the estimate. Missing (nil), zero or negative inputs and
// on-time completions earn nothing.
func CalculateBonusPoints(timeSpentMinutes, estimatedMinutes *int) Bonus {
	if timeSpentMinutes == nil || estimatedMinutes == nil {
		return Bonus{}
	}
	spent, est := *timeSpentMinutes, *estimatedMinutes
	if spent <= 0 || est <= 0 || spent <= est {
		return Bonus{}
	}

	overtime := spent - est
	points := overtime / MinutesPerBonusPoint
	if points == 0 {
		return Bonus{}
	}

	return Bonus{
		BonusPoints:     points,
		OvertimeMinutes: overtime,
		EstimateMinutes: est,
		Explanation:     fmt.Sprintf("%d min over estimate (%d min) = %d bonus points", overtime, est, points),
	}
}

// CalculateTotalPoints adds the overtime bonus to basePoints. A nil or
// negative base contributes zero.
func CalculateTotalPoints(basePoints, timeSpentMinutes, estimatedMinutes *int) Total {
	base := 0
	if basePoints != nil && *basePoints > 0 {
		base = *basePoints
	}
	b := CalculateBonusPoints(timeSpentMinutes, estimatedMinutes)
	return Total{
		TotalPoints: base + b.BonusPoints,
		BonusPoints: b.BonusPoints,
		Explanation: b.Explanation,
	}
}
