package schedule

import (
	"context"
	"strings"

	"github.com/dukerupert/fantastictask/internal/apperr"
	"github.com/dukerupert/fantastictask/internal/auth"
	"github.com/dukerupert/fantastictask/internal/ledger"
	"github.com/dukerupert/fantastictask/internal/model"
)

type RewardInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
	// Active is only read by UpdateReward; nil keeps the current value.
	Active *bool `json:"active"`
}

func (in RewardInput) validate() (RewardInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, apperr.Validation("title is required")
	}
	if in.PointCost < 0 {
		return in, apperr.Validation("point_cost must be >= 0")
	}
	return in, nil
}

func (s *Service) CreateReward(ctx context.Context, in RewardInput) (*model.Reward, error) {
	ac, err := s.require(ctx, auth.ManageTasks, 0)
	if err != nil {
		return nil, err
	}
	in, err = in.validate()
	if err != nil {
		return nil, err
	}

	r, err := s.rewards.Create(ctx, model.Reward{
		FamilyID:    ac.FamilyID,
		Title:       in.Title,
		Description: in.Description,
		PointCost:   in.PointCost,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ac.FamilyID, "reward", "created", r.ID, nil)
	return r, nil
}

func (s *Service) ListRewards(ctx context.Context) ([]model.Reward, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	rewards, err := s.rewards.ListByFamily(ctx, ac.FamilyID, true)
	if err != nil {
		return nil, err
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	return rewards, nil
}

func (s *Service) familyReward(ctx context.Context, familyID, rewardID int64) (*model.Reward, error) {
	r, err := s.rewards.GetByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if r == nil || r.FamilyID != familyID {
		return nil, apperr.NotFound("reward", rewardID)
	}
	return r, nil
}

func (s *Service) UpdateReward(ctx context.Context, id int64, in RewardInput) (*model.Reward, error) {
	ac, err := s.require(ctx, auth.ManageTasks, 0)
	if err != nil {
		return nil, err
	}
	existing, err := s.familyReward(ctx, ac.FamilyID, id)
	if err != nil {
		return nil, err
	}
	in, err = in.validate()
	if err != nil {
		return nil, err
	}

	existing.Title = in.Title
	existing.Description = in.Description
	existing.PointCost = in.PointCost
	if in.Active != nil {
		existing.Active = *in.Active
	}
	r, err := s.rewards.Update(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.publish(ac.FamilyID, "reward", "updated", r.ID, nil)
	return r, nil
}

// DeleteReward removes a reward from the catalog. Past redemptions keep
// their transactions.
func (s *Service) DeleteReward(ctx context.Context, id int64) error {
	ac, err := s.require(ctx, auth.ManageTasks, 0)
	if err != nil {
		return err
	}
	if _, err := s.familyReward(ctx, ac.FamilyID, id); err != nil {
		return err
	}
	if err := s.rewards.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ac.FamilyID, "reward", "deleted", id, nil)
	return nil
}

// RedeemReward spends the reward's cost from memberID's balance. A zero
// memberID redeems for the acting member.
func (s *Service) RedeemReward(ctx context.Context, rewardID, memberID int64) (*model.PointsTransaction, error) {
	ac, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if memberID == 0 {
		memberID = ac.MemberID
	}
	if !auth.HasPermission(ac, auth.RedeemReward, memberID) {
		return nil, apperr.Permission(string(auth.RedeemReward))
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return nil, err
	}

	var spent *model.PointsTransaction
	var reward *model.Reward
	err = s.ledger.InTx(ctx, func(tx *ledger.Tx) error {
		r, err := tx.Rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if r == nil || r.FamilyID != ac.FamilyID || !r.Active {
			return apperr.NotFound("reward", rewardID)
		}
		reward = r
		spent, err = tx.SpendPoints(ctx, memberID, r.PointCost, r.Title)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reward redeemed", "reward_id", reward.ID, "member_id", memberID, "points", reward.PointCost)
	s.publish(ac.FamilyID, "points", "spent", spent.ID, map[string]any{"member_id": memberID, "reward_id": reward.ID})
	return spent, nil
}

// AdjustPoints lets an admin correct a member's balance by delta.
func (s *Service) AdjustPoints(ctx context.Context, memberID int64, delta int, description string) (*model.PointsTransaction, error) {
	ac, err := s.require(ctx, auth.AdjustPoints, memberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.familyMember(ctx, ac.FamilyID, memberID); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, apperr.Validation("delta must not be zero")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Manual adjustment"
	}

	t, err := s.ledger.AdjustPoints(ctx, memberID, delta, description)
	if err != nil {
		return nil, err
	}
	s.logger.Info("points adjusted", "member_id", memberID, "points", t.Points, "adjusted_by", ac.MemberID)
	s.publish(ac.FamilyID, "points", "adjusted", t.ID, map[string]any{"member_id": memberID})
	return t, nil
}
