package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleChild  Role = "child"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleChild:
		return true
	}
	return false
}

// NeedsVerification reports whether completions by this role wait for an adult's approval.
func (r Role) NeedsVerification() bool {
	return r == RoleChild
}

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type FamilyMember struct {
	ID            int64     `json:"id"`
	FamilyID      int64     `json:"family_id"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	PointsBalance int       `json:"points_balance"`
	HasPIN        bool      `json:"has_pin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
