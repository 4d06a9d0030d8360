package service

import (
	"context"

	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/store"
)

// GrantReward recognizes studentID for finding an item. Only teachers grant
// rewards and each item is rewarded at most once. The item's hand-off state
// is not consulted.
func (s *Service) GrantReward(ctx context.Context, actor model.Actor, itemID string, studentID int64) (*model.Reward, error) {
	// Exact role match: administrators do not grant rewards.
	if actor.Role != model.RoleTeacher || actor.UserID <= 0 {
		return nil, lifecycle.Forbiddenf("teacher role required")
	}

	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	student, err := store.GetActiveUser(ctx, s.DB, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, lifecycle.NotFoundf("student not found")
	}
	if student.Role != model.RoleStudent {
		return nil, lifecycle.Validationf("rewards can only be granted to students")
	}

	exists, err := store.RewardExists(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, lifecycle.Conflictf("item has already been rewarded")
	}

	reward, err := store.CreateReward(ctx, s.DB, itemID, studentID, actor.UserID, s.now())
	if err != nil {
		if exists, _ := store.RewardExists(ctx, s.DB, itemID); exists {
			return nil, lifecycle.Conflictf("item has already been rewarded")
		}
		return nil, err
	}

	s.Logger.Info("reward granted", "reward", reward.ID, "item", itemID, "student", student.Username, "user", actor.Username)
	return reward, nil
}

// ListRewards returns rewards, optionally only those of one student.
func (s *Service) ListRewards(ctx context.Context, studentID int64) ([]model.Reward, error) {
	return store.ListRewards(ctx, s.DB, studentID)
}
