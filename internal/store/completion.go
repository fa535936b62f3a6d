package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fantastictask/internal/model"
)

type CompletionStore struct {
	db DBTX
}

func NewCompletionStore(db DBTX) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(sc scanner) (*model.Completion, error) {
	var c model.Completion
	var assignmentID, timeSpent, verifiedBy sql.NullInt64
	var comment, reason sql.NullString
	var verifiedAt sql.NullTime

	err := sc.Scan(
		&c.ID, &c.TaskID, &assignmentID, &c.CompletedBy, &c.CompletedAt, &c.CompletedDate,
		&timeSpent, &comment, &c.PointsAwarded, &c.BonusPoints, &c.VerificationStatus,
		&verifiedBy, &verifiedAt, &reason, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.AssignmentID = int64Ptr(assignmentID)
	c.TimeSpentMinutes = intPtr(timeSpent)
	c.Comment = stringPtr(comment)
	c.VerifiedBy = int64Ptr(verifiedBy)
	c.VerifiedAt = timePtr(verifiedAt)
	c.RejectionReason = stringPtr(reason)
	return &c, nil
}

const completionCols = `c.id, c.task_id, c.assignment_id, c.completed_by, c.completed_at, c.completed_date,
	c.time_spent_minutes, c.comment, c.points_awarded, c.bonus_points, c.verification_status,
	c.verified_by, c.verified_at, c.rejection_reason, c.created_at`

// Create inserts c as given. CompletedAt is stored as an instant (UTC);
// CompletedDate carries the calendar date the member selected.
func (s *CompletionStore) Create(ctx context.Context, c model.Completion) (*model.Completion, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO task_completions
		 (task_id, assignment_id, completed_by, completed_at, completed_date, time_spent_minutes, comment,
		  points_awarded, bonus_points, verification_status, verified_by, verified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.TaskID, nullInt64(c.AssignmentID), c.CompletedBy, c.CompletedAt.UTC(), c.CompletedDate,
		nullInt(c.TimeSpentMinutes), nullString(c.Comment), c.PointsAwarded, c.BonusPoints,
		c.VerificationStatus, nullInt64(c.VerifiedBy), nullTime(c.VerifiedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CompletionStore) GetByID(ctx context.Context, id int64) (*model.Completion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+completionCols+` FROM task_completions c WHERE c.id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

// Delete removes the completion and reports whether a row existed.
func (s *CompletionStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_completions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *CompletionStore) list(ctx context.Context, where string, args ...any) ([]model.Completion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+completionCols+` FROM task_completions c `+where+` ORDER BY c.completed_at DESC, c.id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func (s *CompletionStore) ListByTask(ctx context.Context, taskID int64) ([]model.Completion, error) {
	return s.list(ctx, `WHERE c.task_id = ?`, taskID)
}

// ListByFamily returns every completion of the family's tasks, newest first.
func (s *CompletionStore) ListByFamily(ctx context.Context, familyID int64) ([]model.Completion, error) {
	return s.list(ctx, `JOIN tasks t ON t.id = c.task_id WHERE t.family_id = ?`, familyID)
}

// ListByFamilyDate returns the family's completions recorded for one calendar date.
func (s *CompletionStore) ListByFamilyDate(ctx context.Context, familyID int64, date string) ([]model.Completion, error) {
	return s.list(ctx, `JOIN tasks t ON t.id = c.task_id WHERE t.family_id = ? AND c.completed_date = ?`, familyID, date)
}

// ListByMember returns the member's completions, limited to date unless it is "".
func (s *CompletionStore) ListByMember(ctx context.Context, memberID int64, date string) ([]model.Completion, error) {
	if date == "" {
		return s.list(ctx, `WHERE c.completed_by = ?`, memberID)
	}
	return s.list(ctx, `WHERE c.completed_by = ? AND c.completed_date = ?`, memberID, date)
}

// ListPending returns completions by the family's children that nobody has
// verified yet. Adult completions never appear here.
func (s *CompletionStore) ListPending(ctx context.Context, familyID int64) ([]model.Completion, error) {
	return s.list(ctx,
		`JOIN family_members m ON m.id = c.completed_by
		 WHERE m.family_id = ? AND m.role = ? AND c.verified_by IS NULL AND c.verification_status = ?`,
		familyID, model.RoleChild, model.VerificationPending,
	)
}

// Verification describes a status transition applied by TransitionVerification.
type Verification struct {
	From       model.VerificationStatus
	To         model.VerificationStatus
	VerifiedBy *int64
	VerifiedAt *time.Time
	Reason     *string
}

// TransitionVerification moves a completion from v.From to v.To. It reports
// false without error when the record is not currently in v.From, which
// makes repeated transitions harmless.
func (s *CompletionStore) TransitionVerification(ctx context.Context, id int64, v Verification) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_completions
		 SET verification_status = ?, verified_by = ?, verified_at = ?, rejection_reason = ?
		 WHERE id = ? AND verification_status = ?`,
		v.To, nullInt64(v.VerifiedBy), nullTime(v.VerifiedAt), nullString(v.Reason), id, v.From,
	)
	if err != nil {
		return false, fmt.Errorf("update verification: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
