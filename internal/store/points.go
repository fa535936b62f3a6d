package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/fantastictask/internal/model"
)

type PointsStore struct {
	db DBTX
}

func NewPointsStore(db DBTX) *PointsStore {
	return &PointsStore{db: db}
}

func scanTransaction(sc scanner) (*model.PointsTransaction, error) {
	var t model.PointsTransaction
	var completionID sql.NullInt64

	err := sc.Scan(&t.ID, &t.MemberID, &t.Points, &t.BonusPoints, &t.Type, &t.Description, &completionID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.CompletionID = int64Ptr(completionID)
	return &t, nil
}

const transactionCols = `id, member_id, points, bonus_points, type, description, completion_id, created_at`

// CreateTransaction inserts the ledger row only. Callers keep the member's
// denormalized balance in step within the same transaction.
func (s *PointsStore) CreateTransaction(ctx context.Context, t model.PointsTransaction) (*model.PointsTransaction, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO points_transactions (member_id, points, bonus_points, type, description, completion_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.MemberID, t.Points, t.BonusPoints, t.Type, t.Description, nullInt64(t.CompletionID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert points transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM points_transactions WHERE id = ?`, id)
	created, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("get points transaction: %w", err)
	}
	return created, nil
}

func (s *PointsStore) list(ctx context.Context, where string, args ...any) ([]model.PointsTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionCols+` FROM points_transactions `+where+` ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list points transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.PointsTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan points transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (s *PointsStore) ListByMember(ctx context.Context, memberID int64) ([]model.PointsTransaction, error) {
	return s.list(ctx, `WHERE member_id = ?`, memberID)
}

func (s *PointsStore) ListByCompletion(ctx context.Context, completionID int64) ([]model.PointsTransaction, error) {
	return s.list(ctx, `WHERE completion_id = ?`, completionID)
}

// DeleteByCompletion removes the transactions linked to a completion and
// returns them so the caller can reverse their effect on balances.
func (s *PointsStore) DeleteByCompletion(ctx context.Context, completionID int64) ([]model.PointsTransaction, error) {
	txs, err := s.ListByCompletion(ctx, completionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM points_transactions WHERE completion_id = ?`, completionID); err != nil {
		return nil, fmt.Errorf("delete points transactions: %w", err)
	}
	return txs, nil
}

const balanceQuery = `SELECT m.id, m.name, m.points_balance,
	COALESCE(SUM(CASE WHEN t.type = 'earned' THEN t.points ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN t.type = 'spent' THEN -t.points ELSE 0 END), 0)
	FROM family_members m
	LEFT JOIN points_transactions t ON t.member_id = m.id`

func scanBalance(sc scanner) (*model.PointBalance, error) {
	var b model.PointBalance
	if err := sc.Scan(&b.MemberID, &b.MemberName, &b.Balance, &b.TotalEarned, &b.TotalSpent); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetPointBalance returns the member's denormalized balance alongside the
// earned and spent totals from the transaction history.
func (s *PointsStore) GetPointBalance(ctx context.Context, memberID int64) (*model.PointBalance, error) {
	row := s.db.QueryRowContext(ctx, balanceQuery+` WHERE m.id = ? GROUP BY m.id`, memberID)
	b, err := scanBalance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get point balance: %w", err)
	}
	return b, nil
}

// Leaderboard returns point balances for all family members, ordered by balance DESC.
func (s *PointsStore) Leaderboard(ctx context.Context, familyID int64) ([]model.PointBalance, error) {
	rows, err := s.db.QueryContext(ctx,
		balanceQuery+` WHERE m.family_id = ? GROUP BY m.id ORDER BY m.points_balance DESC, m.name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var balances []model.PointBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}
