// Package schedule is the application service the HTTP layer talks to. It
// decides which tasks are due, runs the completion flow on top of the
// ledger, enforces permissions for the acting member and announces every
// change to realtime subscribers.
package schedule

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/fantastictask/internal/apperr"
	"github.com/dukerupert/fantastictask/internal/auth"
	"github.com/dukerupert/fantastictask/internal/ledger"
	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/store"
)

// Publisher receives a notice after every committed change. Subscribers are
// expected to re-fetch whatever the notice names.
type Publisher interface {
	Publish(familyID int64, entity, action string, id int64, extra map[string]any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(int64, string, string, int64, map[string]any) {}

type Options struct {
	// Location interprets calendar dates. Defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now       func() time.Time
	Publisher Publisher
	Logger    *slog.Logger
}

type Service struct {
	ledger      *ledger.Ledger
	tasks       *store.TaskStore
	assignments *store.AssignmentStore
	completions *store.CompletionStore
	points      *store.PointsStore
	members     *store.FamilyMemberStore
	rewards     *store.RewardStore

	loc       *time.Location
	now       func() time.Time
	publisher Publisher
	logger    *slog.Logger
}

func New(db *sql.DB, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		ledger:      ledger.New(db, opts.Location, opts.Now),
		tasks:       store.NewTaskStore(db),
		assignments: store.NewAssignmentStore(db),
		completions: store.NewCompletionStore(db),
		points:      store.NewPointsStore(db),
		members:     store.NewFamilyMemberStore(db),
		rewards:     store.NewRewardStore(db),
		loc:         opts.Location,
		now:         opts.Now,
		publisher:   opts.Publisher,
		logger:      opts.Logger.With("component", "schedule"),
	}
}

// Location returns the time zone calendar dates are interpreted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ParseDate reads a YYYY-MM-DD string as midnight in the service location.
// An empty string yields the zero time.
func (s *Service) ParseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(model.DateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, want YYYY-MM-DD", v)
	}
	return d, nil
}

func (s *Service) dateOf(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// instantOn combines the calendar date of day with the current time of day.
func (s *Service) instantOn(day time.Time) time.Time {
	now := s.now().In(s.loc)
	d := day.In(s.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), s.loc)
}

func (s *Service) actor(ctx context.Context) (auth.AuthContext, error) {
	ac, ok := auth.FromContext(ctx)
	if !ok || ac.MemberID == 0 {
		return auth.AuthContext{}, apperr.Permission("no acting member")
	}
	return ac, nil
}

func (s *Service) require(ctx context.Context, action auth.Action, target int64) (auth.AuthContext, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return ac, err
	}
	if !auth.HasPermission(ac, action, target) {
		return ac, apperr.Permission(string(action))
	}
	return ac, nil
}

// familyTask loads a task and hides tasks of other families behind NotFound.
func (s *Service) familyTask(ctx context.Context, familyID, taskID int64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.FamilyID != familyID {
		return nil, apperr.NotFound("task", taskID)
	}
	return t, nil
}

func (s *Service) familyMember(ctx context.Context, familyID, memberID int64) (*model.FamilyMember, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.FamilyID != familyID {
		return nil, apperr.NotFound("member", memberID)
	}
	return m, nil
}

func (s *Service) familyCompletion(ctx context.Context, familyID, completionID int64) (*model.Completion, error) {
	c, err := s.completions.GetByID(ctx, completionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("completion", completionID)
	}
	if _, err := s.familyTask(ctx, familyID, c.TaskID); err != nil {
		return nil, apperr.NotFound("completion", completionID)
	}
	return c, nil
}

func (s *Service) publish(familyID int64, entity, action string, id int64, extra map[string]any) {
	s.publisher.Publish(familyID, entity, action, id, extra)
}
