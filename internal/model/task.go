package model

import (
	"time"

	"github.com/dukerupert/fantastictask/internal/recurrence"
)

// DateLayout is the calendar-date form used for due dates, completion dates
// and date query parameters.
const DateLayout = "2006-01-02"

type Task struct {
	ID               int64             `json:"id"`
	FamilyID         int64             `json:"family_id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Points           int               `json:"points"`
	EstimatedMinutes *int              `json:"estimated_minutes"`
	Recurrence       recurrence.Policy `json:"recurrence"`
	IsActive         bool              `json:"is_active"`
	CreatedBy        *int64            `json:"created_by"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Assignment links a task to a member, optionally for one calendar date.
type Assignment struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	AssignedTo  int64     `json:"assigned_to"`
	AssignedBy  *int64    `json:"assigned_by"`
	DueDate     string    `json:"due_date,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}
