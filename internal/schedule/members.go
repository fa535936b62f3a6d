package schedule

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/fantastictask/internal/apperr"
	"github.com/dukerupert/fantastictask/internal/auth"
	"github.com/dukerupert/fantastictask/internal/model"
)

// Identify resolves a member id into the AuthContext operations run under.
func (s *Service) Identify(ctx context.Context, memberID int64) (auth.AuthContext, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return auth.AuthContext{}, err
	}
	if m == nil {
		return auth.AuthContext{}, apperr.NotFound("member", memberID)
	}
	return auth.AuthContext{MemberID: m.ID, FamilyID: m.FamilyID, Role: m.Role}, nil
}

// Bootstrap creates a family with one admin when the directory is empty. It
// returns nil when members already exist.
func (s *Service) Bootstrap(ctx context.Context, familyName, adminName string) (*model.FamilyMember, error) {
	n, err := s.members.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}

	family, err := s.members.CreateFamily(ctx, familyName)
	if err != nil {
		return nil, err
	}
	admin, err := s.members.Create(ctx, family.ID, adminName, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bootstrapped family", "family_id", family.ID, "member_id", admin.ID)
	return admin, nil
}

func (s *Service) ListMembers(ctx context.Context) ([]model.FamilyMember, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.members.ListByFamily(ctx, ac.FamilyID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	return members, nil
}

func (s *Service) CreateMember(ctx context.Context, name string, role model.Role) (*model.FamilyMember, error) {
	ac, err := s.require(ctx, auth.ManageMembers, 0)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role %q", role)
	}

	m, err := s.members.Create(ctx, ac.FamilyID, name, role)
	if err != nil {
		return nil, err
	}
	s.publish(ac.FamilyID, "member", "created", m.ID, nil)
	return m, nil
}

// ChangeRole updates a member's role. Admins cannot demote themselves, which
// keeps at least the acting admin in charge.
func (s *Service) ChangeRole(ctx context.Context, memberID int64, role model.Role) (*model.FamilyMember, error) {
	ac, err := s.require(ctx, auth.ChangeRole, memberID)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role %q", role)
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return nil, err
	}
	if memberID == ac.MemberID && role != model.RoleAdmin {
		return nil, apperr.Conflict("admins cannot demote themselves")
	}

	m, err := s.members.UpdateRole(ctx, memberID, role)
	if err != nil {
		return nil, err
	}
	s.publish(ac.FamilyID, "member", "updated", m.ID, map[string]any{"role": string(role)})
	return m, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SetPIN stores a bcrypt hash of a 4 to 8 digit PIN.
func (s *Service) SetPIN(ctx context.Context, memberID int64, pin string) error {
	ac, err := s.require(ctx, auth.ManagePIN, memberID)
	if err != nil {
		return err
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return err
	}
	if len(pin) < 4 || len(pin) > 8 || !isDigits(pin) {
		return apperr.Validation("PIN must be 4 to 8 digits")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.members.SetPIN(ctx, memberID, string(hash))
}

func (s *Service) ClearPIN(ctx context.Context, memberID int64) error {
	ac, err := s.require(ctx, auth.ManagePIN, memberID)
	if err != nil {
		return err
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return err
	}
	return s.members.ClearPIN(ctx, memberID)
}

// CheckPIN verifies pin against the member's stored hash. Members without a
// PIN always pass.
func (s *Service) CheckPIN(ctx context.Context, memberID int64, pin string) error {
	hash, err := s.members.GetPINHash(ctx, memberID)
	if err != nil {
		return err
	}
	if hash == "" {
		return nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperr.Permission("incorrect PIN")
	}
	return err
}
