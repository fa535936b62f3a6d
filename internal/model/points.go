package model

import "time"

type TransactionType string

const (
	TransactionEarned     TransactionType = "earned"
	TransactionSpent      TransactionType = "spent"
	TransactionAdjustment TransactionType = "adjustment"
)

type PointsTransaction struct {
	ID           int64           `json:"id"`
	MemberID     int64           `json:"member_id"`
	Points       int             `json:"points"`
	BonusPoints  int             `json:"bonus_points"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description"`
	CompletionID *int64          `json:"completion_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

type PointBalance struct {
	MemberID    int64  `json:"member_id"`
	MemberName  string `json:"member_name"`
	TotalEarned int    `json:"total_earned"`
	TotalSpent  int    `json:"total_spent"`
	Balance     int    `json:"balance"`
}
