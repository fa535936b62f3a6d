package schedule

import (
	"context"
	"time"

	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/scoring"
)

// history groups the family's counted completions by task.
func (s *Service) history(ctx context.Context, familyID int64) (map[int64][]time.Time, error) {
	all, err := s.completions.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	byTask := make(map[int64][]time.Time)
	for _, c := range all {
		if c.Counts() {
			byTask[c.TaskID] = append(byTask[c.TaskID], c.CompletedAt)
		}
	}
	return byTask, nil
}

// TasksForDate returns the active tasks due on date, today when date is zero.
func (s *Service) TasksForDate(ctx context.Context, date time.Time) ([]model.Task, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = s.now()
	}
	date = s.dateOf(date)

	tasks, err := s.tasks.ListByFamily(ctx, ac.FamilyID, true)
	if err != nil {
		return nil, err
	}
	byTask, err := s.history(ctx, ac.FamilyID)
	if err != nil {
		return nil, err
	}

	due := []model.Task{}
	for _, t := range tasks {
		if t.Recurrence.IsDue(date, byTask[t.ID]) {
			due = append(due, t)
		}
	}
	return due, nil
}

// DayView lists every task that is due on date or was completed on it, with
// the task's status for that date.
func (s *Service) DayView(ctx context.Context, date time.Time) ([]TaskWithStatus, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = s.now()
	}
	date = s.dateOf(date)
	key := date.Format(model.DateLayout)

	tasks, err := s.tasks.ListByFamily(ctx, ac.FamilyID, false)
	if err != nil {
		return nil, err
	}
	byTask, err := s.history(ctx, ac.FamilyID)
	if err != nil {
		return nil, err
	}
	onDate, err := s.completions.ListByFamilyDate(ctx, ac.FamilyID, key)
	if err != nil {
		return nil, err
	}
	doneOn := make(map[int64][]model.Completion)
	for _, c := range onDate {
		doneOn[c.TaskID] = append(doneOn[c.TaskID], c)
	}

	view := []TaskWithStatus{}
	for _, t := range tasks {
		due := t.IsActive && t.Recurrence.IsDue(date, byTask[t.ID])
		status, shown := ComputeStatus(doneOn[t.ID])
		if !due && shown == nil {
			continue
		}
		view = append(view, TaskWithStatus{
			Task:       t,
			Status:     status,
			Schedule:   t.Recurrence.Describe(),
			Completion: shown,
			Due:        due,
		})
	}
	return view, nil
}

// TasksForMember returns the member's assignments, limited to date unless it is zero.
func (s *Service) TasksForMember(ctx context.Context, memberID int64, date time.Time) ([]model.Assignment, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByMember(ctx, memberID, s.dateKey(date))
	if err != nil {
		return nil, err
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	return assignments, nil
}

// CompletionsForMember returns the member's completions, newest first,
// limited to date unless it is zero.
func (s *Service) CompletionsForMember(ctx context.Context, memberID int64, date time.Time) ([]model.Completion, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return nil, err
	}
	completions, err := s.completions.ListByMember(ctx, memberID, s.dateKey(date))
	if err != nil {
		return nil, err
	}
	if completions == nil {
		completions = []model.Completion{}
	}
	return completions, nil
}

// PendingVerifications returns the family's child completions awaiting review.
func (s *Service) PendingVerifications(ctx context.Context) ([]model.Completion, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.ledger.PendingVerifications(ctx, ac.FamilyID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		pending = []model.Completion{}
	}
	return pending, nil
}

func (s *Service) Leaderboard(ctx context.Context) ([]model.PointBalance, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	board, err := s.points.Leaderboard(ctx, ac.FamilyID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		board = []model.PointBalance{}
	}
	return board, nil
}

// MemberStats summarizes a member's history up to asOf.
type MemberStats struct {
	MemberID           int64          `json:"member_id"`
	Name               string         `json:"name"`
	Balance            int            `json:"points_balance"`
	TotalEarned        int            `json:"total_earned"`
	TotalSpent         int            `json:"total_spent"`
	CompletedCount     int            `json:"completed_count"`
	PendingCount       int            `json:"pending_count"`
	RejectedCount      int            `json:"rejected_count"`
	CompletedLast7Days int            `json:"completed_last_7_days"`
	Streak             scoring.Streak `json:"streak"`
}

// MemberStats counts only completions that are neither pending nor rejected
// toward totals and streaks. A zero asOf means today.
func (s *Service) MemberStats(ctx context.Context, memberID int64, asOf time.Time) (*MemberStats, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.familyMember(ctx, ac.FamilyID, memberID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = s.dateOf(asOf)

	completions, err := s.completions.ListByMember(ctx, memberID, "")
	if err != nil {
		return nil, err
	}
	balance, err := s.points.GetPointBalance(ctx, memberID)
	if err != nil {
		return nil, err
	}

	stats := &MemberStats{
		MemberID: m.ID,
		Name:     m.Name,
		Balance:  m.PointsBalance,
	}
	if balance != nil {
		stats.TotalEarned = balance.TotalEarned
		stats.TotalSpent = balance.TotalSpent
	}

	weekStart := asOf.AddDate(0, 0, -6)
	var days []time.Time
	for _, c := range completions {
		switch c.VerificationStatus {
		case model.VerificationPending:
			stats.PendingCount++
			continue
		case model.VerificationRejected:
			stats.RejectedCount++
			continue
		}
		day, err := time.ParseInLocation(model.DateLayout, c.CompletedDate, s.loc)
		if err != nil || day.After(asOf) {
			continue
		}
		stats.CompletedCount++
		if !day.Before(weekStart) {
			stats.CompletedLast7Days++
		}
		days = append(days, day)
	}
	stats.Streak = scoring.ComputeStreak(days, asOf, s.loc)
	return stats, nil
}

func (s *Service) dateKey(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return s.dateOf(date).Format(model.DateLayout)
}
