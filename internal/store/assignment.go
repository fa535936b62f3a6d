package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/fantastictask/internal/model"
)

type AssignmentStore struct {
	db DBTX
}

func NewAssignmentStore(db DBTX) *AssignmentStore {
	return &AssignmentStore{db: db}
}

func scanAssignment(sc scanner) (*model.Assignment, error) {
	var a model.Assignment
	var assignedBy sql.NullInt64
	var completed int

	err := sc.Scan(&a.ID, &a.TaskID, &a.AssignedTo, &assignedBy, &a.DueDate, &completed, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.AssignedBy = int64Ptr(assignedBy)
	a.IsCompleted = completed != 0
	return &a, nil
}

const assignmentCols = `id, task_id, assigned_to, assigned_by, due_date, is_completed, created_at`

// Create links a task to a member. dueDate is a DateLayout string or "" for
// an open-ended assignment.
func (s *AssignmentStore) Create(ctx context.Context, taskID, assignedTo int64, assignedBy *int64, dueDate string) (*model.Assignment, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO task_assignments (task_id, assigned_to, assigned_by, due_date) VALUES (?, ?, ?, ?)`,
		taskID, assignedTo, nullInt64(assignedBy), dueDate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AssignmentStore) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM task_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// ListByMember returns the member's assignments, limited to dueDate unless it is "".
func (s *AssignmentStore) ListByMember(ctx context.Context, memberID int64, dueDate string) ([]model.Assignment, error) {
	where := `WHERE assigned_to = ?`
	args := []any{memberID}
	if dueDate != "" {
		where += ` AND due_date = ?`
		args = append(args, dueDate)
	}
	return s.list(ctx, where, args...)
}

func (s *AssignmentStore) ListByTask(ctx context.Context, taskID int64) ([]model.Assignment, error) {
	return s.list(ctx, `WHERE task_id = ?`, taskID)
}

func (s *AssignmentStore) list(ctx context.Context, where string, args ...any) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentCols+` FROM task_assignments `+where+` ORDER BY due_date ASC, id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *AssignmentStore) SetCompleted(ctx context.Context, id int64, completed bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE task_assignments SET is_completed = ? WHERE id = ?`, boolInt(completed), id)
	if err != nil {
		return fmt.Errorf("set assignment completed: %w", err)
	}
	return nil
}
