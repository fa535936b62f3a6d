package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/dukerupert/fantastictask/internal/apperr"
	"github.com/dukerupert/fantastictask/internal/auth"
	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/recurrence"
)

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Points           int               `json:"points"`
	EstimatedMinutes *int              `json:"estimated_minutes"`
	Recurrence       recurrence.Policy `json:"recurrence"`
}

func (in TaskInput) validate() (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, apperr.Validation("title is required")
	}
	if in.Points < 0 {
		return in, apperr.Validation("points must be >= 0")
	}
	if in.EstimatedMinutes != nil && *in.EstimatedMinutes <= 0 {
		return in, apperr.Validation("estimated_minutes must be > 0")
	}
	p, err := in.Recurrence.Normalize()
	if err != nil {
		return in, apperr.Validation("recurrence: %v", err)
	}
	in.Recurrence = p
	return in, nil
}

func (s *Service) CreateTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	ac, err := s.require(ctx, auth.ManageTasks, 0)
	if err != nil {
		return nil, err
	}
	in, err = in.validate()
	if err != nil {
		return nil, err
	}

	t, err := s.tasks.Create(ctx, model.Task{
		FamilyID:         ac.FamilyID,
		Title:            in.Title,
		Description:      in.Description,
		Points:           in.Points,
		EstimatedMinutes: in.EstimatedMinutes,
		Recurrence:       in.Recurrence,
		IsActive:         true,
		CreatedBy:        &ac.MemberID,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ac.FamilyID, "task", "created", t.ID, nil)
	return t, nil
}

func (s *Service) UpdateTask(ctx context.Context, id int64, in TaskInput) (*model.Task, error) {
	ac, err := s.require(ctx, auth.ManageTasks, 0)
	if err != nil {
		return nil, err
	}
	existing, err := s.familyTask(ctx, ac.FamilyID, id)
	if err != nil {
		return nil, err
	}
	in, err = in.validate()
	if err != nil {
		return nil, err
	}

	existing.Title = in.Title
	existing.Description = in.Description
	existing.Points = in.Points
	existing.EstimatedMinutes = in.EstimatedMinutes
	existing.Recurrence = in.Recurrence
	t, err := s.tasks.Update(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.publish(ac.FamilyID, "task", "updated", t.ID, nil)
	return t, nil
}

// DeleteTask soft-deletes a task so its completion history stays intact.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	ac, err := s.require(ctx, auth.ManageTasks, 0)
	if err != nil {
		return err
	}
	if _, err := s.familyTask(ctx, ac.FamilyID, id); err != nil {
		return err
	}
	if err := s.tasks.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.publish(ac.FamilyID, "task", "deleted", id, nil)
	return nil
}

func (s *Service) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.familyTask(ctx, ac.FamilyID, id)
}

func (s *Service) ListTasks(ctx context.Context, includeInactive bool) ([]model.Task, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListByFamily(ctx, ac.FamilyID, !includeInactive)
}

// AssignTask links a task to a family member. A zero dueDate leaves the
// assignment open-ended.
func (s *Service) AssignTask(ctx context.Context, taskID, memberID int64, dueDate time.Time) (*model.Assignment, error) {
	ac, err := s.require(ctx, auth.AssignTasks, memberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.familyTask(ctx, ac.FamilyID, taskID); err != nil {
		return nil, err
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return nil, apperr.Validation("member %d is not in this family", memberID)
	}

	due := ""
	if !dueDate.IsZero() {
		due = s.dateOf(dueDate).Format(model.DateLayout)
	}
	a, err := s.assignments.Create(ctx, taskID, memberID, &ac.MemberID, due)
	if err != nil {
		return nil, err
	}
	s.publish(ac.FamilyID, "assignment", "created", a.ID, map[string]any{"task_id": taskID, "member_id": memberID})
	return a, nil
}

func (s *Service) TaskAssignments(ctx context.Context, taskID int64) ([]model.Assignment, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.familyTask(ctx, ac.FamilyID, taskID); err != nil {
		return nil, err
	}
	return s.assignments.ListByTask(ctx, taskID)
}
