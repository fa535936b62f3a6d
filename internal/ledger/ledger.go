// Package ledger records task completions and the points they move.
//
// Every operation that touches more than one row runs inside a single SQL
// transaction, so a completion is never stored without its points
// transaction (or the reverse) and balance updates cannot be lost to
// concurrent writers. Callers that need to combine several ledger steps with
// their own writes use Ledger.InTx and the methods on Tx.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/fantastictask/internal/apperr"
	"github.com/dukerupert/fantastictask/internal/database"
	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/recurrence"
	"github.com/dukerupert/fantastictask/internal/store"
)

type Ledger struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// New returns a Ledger over db. loc determines the calendar date a
// completion belongs to; now supplies the current instant and defaults to
// time.Now.
func New(db *sql.DB, loc *time.Location, now func() time.Time) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{db: db, loc: loc, now: now}
}

// Tx exposes the ledger operations and the underlying stores bound to one
// SQL transaction.
type Tx struct {
	Tasks       *store.TaskStore
	Assignments *store.AssignmentStore
	Completions *store.CompletionStore
	Points      *store.PointsStore
	Members     *store.FamilyMemberStore
	Rewards     *store.RewardStore

	ledger *Ledger
}

// InTx runs fn in one transaction and commits if it returns nil.
func (l *Ledger) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	return database.InTx(ctx, l.db, func(sqlTx *sql.Tx) error {
		return fn(&Tx{
			Tasks:       store.NewTaskStore(sqlTx),
			Assignments: store.NewAssignmentStore(sqlTx),
			Completions: store.NewCompletionStore(sqlTx),
			Points:      store.NewPointsStore(sqlTx),
			Members:     store.NewFamilyMemberStore(sqlTx),
			Rewards:     store.NewRewardStore(sqlTx),
			ledger:      l,
		})
	})
}

// Record is the input to RecordCompletion. Pointer fields are optional.
type Record struct {
	TaskID           int64
	AssignmentID     *int64
	CompletedBy      int64
	CompletedAt      time.Time
	TimeSpentMinutes *int
	Comment          *string
	PointsAwarded    *int
	BonusPoints      int
	Status           model.VerificationStatus
}

func (r Record) normalize(now time.Time) (Record, error) {
	if r.TaskID == 0 {
		return r, apperr.Validation("task_id is required")
	}
	if r.CompletedBy == 0 {
		return r, apperr.Validation("completed_by is required")
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = now
	}
	if r.TimeSpentMinutes != nil && *r.TimeSpentMinutes < 0 {
		zero := 0
		r.TimeSpentMinutes = &zero
	}
	if r.Comment != nil {
		c := strings.TrimSpace(*r.Comment)
		if c == "" {
			r.Comment = nil
		} else {
			r.Comment = &c
		}
	}
	if r.BonusPoints < 0 {
		r.BonusPoints = 0
	}
	if r.Status == "" {
		r.Status = model.VerificationNone
	}
	return r, nil
}

// RecordCompletion stores a completion. It validates identifiers and
// normalizes optional fields but posts no points.
func (l *Ledger) RecordCompletion(ctx context.Context, r Record) (*model.Completion, error) {
	var c *model.Completion
	err := l.InTx(ctx, func(tx *Tx) error {
		var err error
		c, err = tx.RecordCompletion(ctx, r)
		return err
	})
	return c, err
}

func (tx *Tx) RecordCompletion(ctx context.Context, r Record) (*model.Completion, error) {
	r, err := r.normalize(tx.ledger.now())
	if err != nil {
		return nil, err
	}

	points := 0
	if r.PointsAwarded != nil && *r.PointsAwarded > 0 {
		points = *r.PointsAwarded
	}

	c, err := tx.Completions.Create(ctx, model.Completion{
		TaskID:             r.TaskID,
		AssignmentID:       r.AssignmentID,
		CompletedBy:        r.CompletedBy,
		CompletedAt:        r.CompletedAt,
		CompletedDate:      r.CompletedAt.In(tx.ledger.loc).Format(model.DateLayout),
		TimeSpentMinutes:   r.TimeSpentMinutes,
		Comment:            r.Comment,
		PointsAwarded:      points,
		BonusPoints:        r.BonusPoints,
		VerificationStatus: r.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}
	return c, nil
}

// Undo removes a completion together with its points transactions and takes
// the awarded points back off the member's balance, never below zero.
// Undoing a completion that no longer exists is an error.
func (l *Ledger) Undo(ctx context.Context, completionID int64) (*model.Completion, error) {
	var c *model.Completion
	err := l.InTx(ctx, func(tx *Tx) error {
		var err error
		c, err = tx.Undo(ctx, completionID)
		return err
	})
	return c, err
}

func (tx *Tx) Undo(ctx context.Context, completionID int64) (*model.Completion, error) {
	c, err := tx.mustCompletion(ctx, completionID)
	if err != nil {
		return nil, err
	}

	removed, err := tx.Points.DeleteByCompletion(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	// Points are reversed per member since a transaction may credit someone
	// other than the completer.
	refund := make(map[int64]int)
	for _, t := range removed {
		refund[t.MemberID] += t.Points
	}
	for memberID, points := range refund {
		if points == 0 {
			continue
		}
		if _, err := tx.Members.AddPoints(ctx, memberID, -points); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Completions.Delete(ctx, c.ID); err != nil {
		return nil, err
	}
	if err := tx.reopen(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Approve marks a pending completion approved and awards its points.
// Approving an already approved completion returns it unchanged.
func (l *Ledger) Approve(ctx context.Context, completionID, verifierID int64) (*model.Completion, error) {
	var c *model.Completion
	err := l.InTx(ctx, func(tx *Tx) error {
		var err error
		c, err = tx.Approve(ctx, completionID, verifierID)
		return err
	})
	return c, err
}

func (tx *Tx) Approve(ctx context.Context, completionID, verifierID int64) (*model.Completion, error) {
	c, err := tx.mustCompletion(ctx, completionID)
	if err != nil {
		return nil, err
	}

	switch c.VerificationStatus {
	case model.VerificationApproved:
		return c, nil
	case model.VerificationRejected:
		return nil, apperr.Conflict("completion %d was rejected", c.ID)
	}

	at := tx.ledger.now()
	changed, err := tx.Completions.TransitionVerification(ctx, c.ID, store.Verification{
		From:       c.VerificationStatus,
		To:         model.VerificationApproved,
		VerifiedBy: &verifierID,
		VerifiedAt: &at,
	})
	if err != nil {
		return nil, err
	}
	if changed {
		existing, err := tx.Points.ListByCompletion(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			desc, err := tx.describe(ctx, c.TaskID)
			if err != nil {
				return nil, err
			}
			if _, err := tx.AwardPoints(ctx, c.CompletedBy, c.PointsAwarded, c.BonusPoints, desc, &c.ID); err != nil {
				return nil, err
			}
		}
	}
	return tx.Completions.GetByID(ctx, c.ID)
}

// Reject marks a completion rejected without awarding points and makes the
// task available again: the originating assignment is reopened and a Once
// task is reactivated. Rejecting twice returns the record unchanged.
func (l *Ledger) Reject(ctx context.Context, completionID, verifierID int64, reason string) (*model.Completion, error) {
	var c *model.Completion
	err := l.InTx(ctx, func(tx *Tx) error {
		var err error
		c, err = tx.Reject(ctx, completionID, verifierID, reason)
		return err
	})
	return c, err
}

func (tx *Tx) Reject(ctx context.Context, completionID, verifierID int64, reason string) (*model.Completion, error) {
	c, err := tx.mustCompletion(ctx, completionID)
	if err != nil {
		return nil, err
	}

	switch c.VerificationStatus {
	case model.VerificationRejected:
		return c, nil
	case model.VerificationApproved:
		return nil, apperr.Conflict("completion %d was already approved", c.ID)
	}

	at := tx.ledger.now()
	var why *string
	if r := strings.TrimSpace(reason); r != "" {
		why = &r
	}
	if _, err := tx.Completions.TransitionVerification(ctx, c.ID, store.Verification{
		From:       c.VerificationStatus,
		To:         model.VerificationRejected,
		VerifiedBy: &verifierID,
		VerifiedAt: &at,
		Reason:     why,
	}); err != nil {
		return nil, err
	}

	c.VerificationStatus = model.VerificationRejected
	if err := tx.reopen(ctx, c); err != nil {
		return nil, err
	}
	return tx.Completions.GetByID(ctx, c.ID)
}

// reopen undoes the side effects a completion had on its assignment and on a
// Once task. The task stays inactive if another completion still counts.
func (tx *Tx) reopen(ctx context.Context, c *model.Completion) error {
	if c.AssignmentID != nil {
		if err := tx.Assignments.SetCompleted(ctx, *c.AssignmentID, false); err != nil {
			return err
		}
	}

	task, err := tx.Tasks.GetByID(ctx, c.TaskID)
	if err != nil {
		return err
	}
	if task == nil || task.Recurrence.Kind != recurrence.KindOnce || task.IsActive {
		return nil
	}

	history, err := tx.Completions.ListByTask(ctx, task.ID)
	if err != nil {
		return err
	}
	for _, other := range history {
		if other.ID != c.ID && other.Counts() {
			return nil
		}
	}
	return tx.Tasks.SetActive(ctx, task.ID, true)
}

// PendingVerifications returns the family's child completions awaiting a verifier.
func (l *Ledger) PendingVerifications(ctx context.Context, familyID int64) ([]model.Completion, error) {
	return store.NewCompletionStore(l.db).ListPending(ctx, familyID)
}

// AwardPoints posts an earned transaction and adds points to the member's
// balance. bonus is the share of points that came from overtime.
func (l *Ledger) AwardPoints(ctx context.Context, memberID int64, points, bonus int, description string, completionID *int64) (*model.PointsTransaction, error) {
	var t *model.PointsTransaction
	err := l.InTx(ctx, func(tx *Tx) error {
		var err error
		t, err = tx.AwardPoints(ctx, memberID, points, bonus, description, completionID)
		return err
	})
	return t, err
}

func (tx *Tx) AwardPoints(ctx context.Context, memberID int64, points, bonus int, description string, completionID *int64) (*model.PointsTransaction, error) {
	if points < 0 {
		return nil, apperr.Validation("awarded points must be >= 0")
	}
	if bonus < 0 {
		bonus = 0
	}
	t, err := tx.Points.CreateTransaction(ctx, model.PointsTransaction{
		MemberID:     memberID,
		Points:       points,
		BonusPoints:  bonus,
		Type:         model.TransactionEarned,
		Description:  description,
		CompletionID: completionID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Members.AddPoints(ctx, memberID, points); err != nil {
		return nil, err
	}
	return t, nil
}

// SpendPoints posts a spent transaction of -cost. It fails with
// apperr.ErrInsufficientPoints when the balance does not cover cost.
func (l *Ledger) SpendPoints(ctx context.Context, memberID int64, cost int, description string) (*model.PointsTransaction, error) {
	var t *model.PointsTransaction
	err := l.InTx(ctx, func(tx *Tx) error {
		var err error
		t, err = tx.SpendPoints(ctx, memberID, cost, description)
		return err
	})
	return t, err
}

func (tx *Tx) SpendPoints(ctx context.Context, memberID int64, cost int, description string) (*model.PointsTransaction, error) {
	if cost < 0 {
		return nil, apperr.Validation("cost must be >= 0")
	}
	m, err := tx.mustMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.PointsBalance < cost {
		return nil, fmt.Errorf("%w: balance %d, cost %d", apperr.ErrInsufficientPoints, m.PointsBalance, cost)
	}

	t, err := tx.Points.CreateTransaction(ctx, model.PointsTransaction{
		MemberID:    memberID,
		Points:      -cost,
		Type:        model.TransactionSpent,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Members.AddPoints(ctx, memberID, -cost); err != nil {
		return nil, err
	}
	return t, nil
}

// AdjustPoints posts an adjustment of delta. A negative delta larger than the
// balance is recorded as the amount actually removed, so the balance lands
// on zero and still equals the sum of the member's transactions.
func (l *Ledger) AdjustPoints(ctx context.Context, memberID int64, delta int, description string) (*model.PointsTransaction, error) {
	var t *model.PointsTransaction
	err := l.InTx(ctx, func(tx *Tx) error {
		var err error
		t, err = tx.AdjustPoints(ctx, memberID, delta, description)
		return err
	})
	return t, err
}

func (tx *Tx) AdjustPoints(ctx context.Context, memberID int64, delta int, description string) (*model.PointsTransaction, error) {
	m, err := tx.mustMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if delta < -m.PointsBalance {
		delta = -m.PointsBalance
	}

	t, err := tx.Points.CreateTransaction(ctx, model.PointsTransaction{
		MemberID:    memberID,
		Points:      delta,
		Type:        model.TransactionAdjustment,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Members.AddPoints(ctx, memberID, delta); err != nil {
		return nil, err
	}
	return t, nil
}

func (tx *Tx) mustCompletion(ctx context.Context, id int64) (*model.Completion, error) {
	c, err := tx.Completions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("completion", id)
	}
	return c, nil
}

func (tx *Tx) mustMember(ctx context.Context, id int64) (*model.FamilyMember, error) {
	m, err := tx.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("member", id)
	}
	return m, nil
}

func (tx *Tx) describe(ctx context.Context, taskID int64) (string, error) {
	task, err := tx.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		return "", nil
	}
	return task.Title, nil
}
