package schedule

import (
	"context"
	"time"

	"github.com/dukerupert/fantastictask/internal/apperr"
	"github.com/dukerupert/fantastictask/internal/auth"
	"github.com/dukerupert/fantastictask/internal/ledger"
	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/recurrence"
	"github.com/dukerupert/fantastictask/internal/scoring"
)

// CompletionInput describes a task being marked done.
type CompletionInput struct {
	TaskID int64 `json:"task_id"`
	// CompletedBy defaults to the acting member.
	CompletedBy int64 `json:"completed_by"`
	// Date is the calendar date the member selected; zero means today. The
	// stored instant combines this date with the current time of day.
	Date             time.Time `json:"-"`
	TimeSpentMinutes *int      `json:"time_spent_minutes"`
	Comment          *string   `json:"comment"`
	// PointsAwarded overrides the task's base points when set.
	PointsAwarded *int   `json:"points_awarded"`
	AssignmentID  *int64 `json:"-"`
}

// CompleteWithData records a completion and, for adults, awards the points
// in the same transaction. Children's completions wait for verification.
func (s *Service) CompleteWithData(ctx context.Context, in CompletionInput) (*model.Completion, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if in.TaskID == 0 {
		return nil, apperr.Validation("task_id is required")
	}
	if in.CompletedBy == 0 {
		in.CompletedBy = ac.MemberID
	}
	if !auth.HasPermission(ac, auth.CompleteForOther, in.CompletedBy) {
		return nil, apperr.Permission(string(auth.CompleteForOther))
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	var (
		c      *model.Completion
		task   *model.Task
		member *model.FamilyMember
		total  scoring.Total
	)
	err = s.ledger.InTx(ctx, func(tx *ledger.Tx) error {
		var err error
		task, err = tx.Tasks.GetByID(ctx, in.TaskID)
		if err != nil {
			return err
		}
		if task == nil || task.FamilyID != ac.FamilyID {
			return apperr.Validation("unknown task %d", in.TaskID)
		}
		if !task.IsActive {
			return apperr.Conflict("task %d is not active", task.ID)
		}
		member, err = tx.Members.GetByID(ctx, in.CompletedBy)
		if err != nil {
			return err
		}
		if member == nil || member.FamilyID != ac.FamilyID {
			return apperr.Validation("unknown member %d", in.CompletedBy)
		}

		base := task.Points
		if in.PointsAwarded != nil {
			base = *in.PointsAwarded
		}
		total = scoring.CalculateTotalPoints(&base, in.TimeSpentMinutes, task.EstimatedMinutes)

		status := model.VerificationApproved
		if member.Role.NeedsVerification() {
			status = model.VerificationPending
		}
		c, err = tx.RecordCompletion(ctx, ledger.Record{
			TaskID:           task.ID,
			AssignmentID:     in.AssignmentID,
			CompletedBy:      member.ID,
			CompletedAt:      s.instantOn(in.Date),
			TimeSpentMinutes: in.TimeSpentMinutes,
			Comment:          in.Comment,
			PointsAwarded:    &total.TotalPoints,
			BonusPoints:      total.BonusPoints,
			Status:           status,
		})
		if err != nil {
			return err
		}

		if status == model.VerificationApproved {
			if _, err := tx.AwardPoints(ctx, member.ID, c.PointsAwarded, c.BonusPoints, task.Title, &c.ID); err != nil {
				return err
			}
		}
		if in.AssignmentID != nil {
			if err := tx.Assignments.SetCompleted(ctx, *in.AssignmentID, true); err != nil {
				return err
			}
		}
		if task.Recurrence.Kind == recurrence.KindOnce {
			if err := tx.Tasks.SetActive(ctx, task.ID, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task completed",
		"completion_id", c.ID,
		"task_id", task.ID,
		"member_id", member.ID,
		"points", c.PointsAwarded,
		"bonus_points", c.BonusPoints,
		"status", c.VerificationStatus,
	)
	s.publish(ac.FamilyID, "completion", "created", c.ID, map[string]any{"task_id": task.ID, "member_id": member.ID})
	return c, nil
}

// AssignmentCompletion holds the optional details of completing an assignment.
type AssignmentCompletion struct {
	Date             time.Time `json:"-"`
	TimeSpentMinutes *int      `json:"time_spent_minutes"`
	Comment          *string   `json:"comment"`
}

// CompleteByAssignment completes the assignment's task as the acting member.
func (s *Service) CompleteByAssignment(ctx context.Context, assignmentID int64, in AssignmentCompletion) (*model.Completion, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("assignment", assignmentID)
	}
	if _, err := s.familyTask(ctx, ac.FamilyID, a.TaskID); err != nil {
		return nil, apperr.NotFound("assignment", assignmentID)
	}

	return s.CompleteWithData(ctx, CompletionInput{
		TaskID:           a.TaskID,
		CompletedBy:      ac.MemberID,
		Date:             in.Date,
		TimeSpentMinutes: in.TimeSpentMinutes,
		Comment:          in.Comment,
		AssignmentID:     &a.ID,
	})
}

// UndoCompletion removes a completion and reverses its points. Children may
// only undo their own completions.
func (s *Service) UndoCompletion(ctx context.Context, id int64) error {
	ac, err := s.actor(ctx)
	if err != nil {
		return err
	}
	c, err := s.familyCompletion(ctx, ac.FamilyID, id)
	if err != nil {
		return err
	}
	if !auth.HasPermission(ac, auth.UndoCompletion, c.CompletedBy) {
		return apperr.Permission(string(auth.UndoCompletion))
	}

	if _, err := s.ledger.Undo(ctx, id); err != nil {
		return err
	}

	s.logger.Info("completion undone",
		"completion_id", c.ID,
		"task_id", c.TaskID,
		"member_id", c.CompletedBy,
		"points", c.PointsAwarded,
	)
	s.publish(ac.FamilyID, "completion", "deleted", c.ID, map[string]any{"task_id": c.TaskID, "member_id": c.CompletedBy})
	return nil
}

// ApproveCompletion approves a pending completion and awards its points.
// Nobody may verify their own completion.
func (s *Service) ApproveCompletion(ctx context.Context, id int64) (*model.Completion, error) {
	ac, c, err := s.verifiable(ctx, id)
	if err != nil {
		return nil, err
	}

	approved, err := s.ledger.Approve(ctx, id, ac.MemberID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("completion approved",
		"completion_id", c.ID,
		"task_id", c.TaskID,
		"member_id", c.CompletedBy,
		"points", c.PointsAwarded,
		"verified_by", ac.MemberID,
	)
	s.publish(ac.FamilyID, "completion", "approved", c.ID, map[string]any{"task_id": c.TaskID, "member_id": c.CompletedBy})
	return approved, nil
}

// RejectCompletion rejects a completion without awarding points, which makes
// the task available again for that date.
func (s *Service) RejectCompletion(ctx context.Context, id int64, reason string) (*model.Completion, error) {
	ac, c, err := s.verifiable(ctx, id)
	if err != nil {
		return nil, err
	}

	rejected, err := s.ledger.Reject(ctx, id, ac.MemberID, reason)
	if err != nil {
		return nil, err
	}

	s.logger.Info("completion rejected",
		"completion_id", c.ID,
		"task_id", c.TaskID,
		"member_id", c.CompletedBy,
		"verified_by", ac.MemberID,
	)
	s.publish(ac.FamilyID, "completion", "rejected", c.ID, map[string]any{"task_id": c.TaskID, "member_id": c.CompletedBy})
	return rejected, nil
}

func (s *Service) verifiable(ctx context.Context, id int64) (auth.AuthContext, *model.Completion, error) {
	ac, err := s.require(ctx, auth.VerifyCompletions, 0)
	if err != nil {
		return ac, nil, err
	}
	c, err := s.familyCompletion(ctx, ac.FamilyID, id)
	if err != nil {
		return ac, nil, err
	}
	if c.CompletedBy == ac.MemberID {
		return ac, nil, apperr.Permission("verify own completion")
	}
	return ac, c, nil
}
