package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/fantastictask/internal/model"
)

type FamilyMemberStore struct {
	db DBTX
}

func NewFamilyMemberStore(db DBTX) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

// --- Family methods ---

func (s *FamilyMemberStore) CreateFamily(ctx context.Context, name string) (*model.Family, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO families (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var f model.Family
	err = s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM families WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return &f, nil
}

// --- Member methods ---

func scanMember(sc scanner) (*model.FamilyMember, error) {
	var m model.FamilyMember
	err := sc.Scan(&m.ID, &m.FamilyID, &m.Name, &m.Role, &m.PointsBalance, &m.HasPIN, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, family_id, name, role, points_balance, pin IS NOT NULL, created_at, updated_at`

func (s *FamilyMemberStore) Create(ctx context.Context, familyID int64, name string, role model.Role) (*model.FamilyMember, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO family_members (family_id, name, role) VALUES (?, ?, ?)`,
		familyID, name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *FamilyMemberStore) GetByID(ctx context.Context, id int64) (*model.FamilyMember, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM family_members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) ListByFamily(ctx context.Context, familyID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? ORDER BY name ASC, id ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *FamilyMemberStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM family_members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count family members: %w", err)
	}
	return n, nil
}

func (s *FamilyMemberStore) UpdateRole(ctx context.Context, id int64, role model.Role) (*model.FamilyMember, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE family_members SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetByID(ctx, id)
}

// AddPoints atomically applies delta to the member's balance, clamping the
// result at zero, and returns the new balance.
func (s *FamilyMemberStore) AddPoints(ctx context.Context, id int64, delta int) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx,
		`UPDATE family_members SET points_balance = MAX(0, points_balance + ?) WHERE id = ? RETURNING points_balance`,
		delta, id,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("add points: family member %d not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return balance, nil
}

func (s *FamilyMemberStore) SetPIN(ctx context.Context, id int64, hashedPIN string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE family_members SET pin = ? WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *FamilyMemberStore) ClearPIN(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE family_members SET pin = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns the stored bcrypt hash, or "" when no PIN is set.
func (s *FamilyMemberStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT pin FROM family_members WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("family member not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}
