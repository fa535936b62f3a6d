package model

import "time"

type VerificationStatus string

const (
	// VerificationNone is the status of a record written without a verification decision.
	VerificationNone     VerificationStatus = "none"
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type Completion struct {
	ID                 int64              `json:"id"`
	TaskID             int64              `json:"task_id"`
	AssignmentID       *int64             `json:"assignment_id"`
	CompletedBy        int64              `json:"completed_by"`
	CompletedAt        time.Time          `json:"completed_at"`
	CompletedDate      string             `json:"completed_date"`
	TimeSpentMinutes   *int               `json:"time_spent_minutes"`
	Comment            *string            `json:"comment"`
	PointsAwarded      int                `json:"points_awarded"`
	BonusPoints        int                `json:"bonus_points"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	VerifiedBy         *int64             `json:"verified_by"`
	VerifiedAt         *time.Time         `json:"verified_at"`
	RejectionReason    *string            `json:"rejection_reason"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Counts reports whether the completion marks its task done for its date.
// Rejected completions leave the task available again.
func (c Completion) Counts() bool {
	return c.VerificationStatus != VerificationRejected
}
