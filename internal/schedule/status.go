package schedule

import (
	"github.com/dukerupert/fantastictask/internal/model"
)

type Status string

const (
	StatusAvailable           Status = "available"
	StatusCompleted           Status = "completed"
	StatusPendingVerification Status = "pending_verification"
)

// TaskWithStatus is one row of a day view.
type TaskWithStatus struct {
	model.Task
	Status     Status            `json:"status"`
	Schedule   string            `json:"schedule"`
	Completion *model.Completion `json:"completion,omitempty"`
	Due        bool              `json:"due"`
}

// ComputeStatus picks the completion that represents a task on one date and
// derives the task's status from it. completions must all belong to that
// task and date; the latest one that was not rejected wins.
func ComputeStatus(completions []model.Completion) (Status, *model.Completion) {
	var shown *model.Completion
	for i := range completions {
		c := &completions[i]
		if !c.Counts() {
			continue
		}
		if shown == nil || c.CompletedAt.After(shown.CompletedAt) ||
			(c.CompletedAt.Equal(shown.CompletedAt) && c.ID > shown.ID) {
			shown = c
		}
	}

	if shown == nil {
		return StatusAvailable, nil
	}
	if shown.VerificationStatus == model.VerificationPending {
		return StatusPendingVerification, shown
	}
	return StatusCompleted, shown
}
