package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/recurrence"
)

type TaskStore struct {
	db DBTX
}

func NewTaskStore(db DBTX) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(sc scanner) (*model.Task, error) {
	var t model.Task
	var estimated, createdBy sql.NullInt64
	var rule string
	var active int

	err := sc.Scan(
		&t.ID, &t.FamilyID, &t.Title, &t.Description, &t.Points, &estimated,
		&rule, &active, &createdBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p, err := recurrence.Parse(rule)
	if err != nil {
		return nil, fmt.Errorf("task %d recurrence: %w", t.ID, err)
	}
	t.Recurrence = p
	t.EstimatedMinutes = intPtr(estimated)
	t.CreatedBy = int64Ptr(createdBy)
	t.IsActive = active != 0
	return &t, nil
}

const taskCols = `id, family_id, title, description, points, estimated_minutes, recurrence, is_active, created_by, created_at, updated_at`

func (s *TaskStore) Create(ctx context.Context, t model.Task) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (family_id, title, description, points, estimated_minutes, recurrence, is_active, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.FamilyID, t.Title, t.Description, t.Points, nullInt(t.EstimatedMinutes),
		t.Recurrence.String(), boolInt(t.IsActive), nullInt64(t.CreatedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListByFamily returns the family's tasks ordered by title. Soft-deleted
// tasks are included only when activeOnly is false.
func (s *TaskStore) ListByFamily(ctx context.Context, familyID int64, activeOnly bool) ([]model.Task, error) {
	query := `SELECT ` + taskCols + ` FROM tasks WHERE family_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY title ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(ctx context.Context, t model.Task) (*model.Task, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, points = ?, estimated_minutes = ?, recurrence = ?, is_active = ? WHERE id = ?`,
		t.Title, t.Description, t.Points, nullInt(t.EstimatedMinutes), t.Recurrence.String(), boolInt(t.IsActive), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(ctx, t.ID)
}

// SetActive flips the soft-delete flag. Tasks are never hard-deleted while
// completions reference them.
func (s *TaskStore) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET is_active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("set task active: %w", err)
	}
	return nil
}
