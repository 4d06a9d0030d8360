package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/store"
)

// Claim list sort keys.
const (
	SortNewest = "NEWEST"
	SortOldest = "OLDEST"
)

// ClaimQuery is the caller-facing form of a claim listing request.
type ClaimQuery struct {
	Status string
	ItemID string
	Sort   string
}

// ClaimResolver decides what approving or rejecting a claim does to the
// claimed item. It runs inside the transaction that changes the claim.
type ClaimResolver interface {
	ResolveClaim(ctx context.Context, tx *sql.Tx, claim *model.Claim, decision model.ClaimStatus) error
}

// SubmitClaim records actor's ownership claim on an item.
func (s *Service) SubmitClaim(ctx context.Context, actor model.Actor, itemID, reason string) (*model.Claim, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, lifecycle.Validationf("reason is required")
	}
	if utf8.RuneCountInString(reason) > model.MaxClaimReasonLength {
		return nil, lifecycle.Validationf("reason must be at most %d characters", model.MaxClaimReasonLength)
	}

	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	exists, err := store.ClaimExists(ctx, s.DB, itemID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, lifecycle.Conflictf("you have already claimed this item")
	}

	claim, err := store.CreateClaim(ctx, s.DB, itemID, actor.UserID, reason, s.now())
	if err != nil {
		// Lost the race against a concurrent submission.
		if exists, _ := store.ClaimExists(ctx, s.DB, itemID, actor.UserID); exists {
			return nil, lifecycle.Conflictf("you have already claimed this item")
		}
		return nil, err
	}

	s.Logger.Info("claim submitted", "claim", claim.ID, "item", itemID, "user", actor.Username)
	return claim, nil
}

// ListClaims returns claims for administrators. An empty status means
// pending; the default order is newest first.
func (s *Service) ListClaims(ctx context.Context, actor model.Actor, q ClaimQuery) ([]model.Claim, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	f := store.ClaimFilter{Status: model.ClaimPending, ItemID: q.ItemID}
	if q.Status != "" {
		f.Status = model.ClaimStatus(strings.ToLower(q.Status))
		if !f.Status.Valid() {
			return nil, lifecycle.Validationf("unknown claim status %q", q.Status)
		}
	}
	switch strings.ToUpper(q.Sort) {
	case "", SortNewest:
	case SortOldest:
		f.OldestFirst = true
	default:
		return nil, lifecycle.Validationf("unknown sort %q", q.Sort)
	}

	return store.ListClaims(ctx, s.DB, f)
}

// MyClaims returns the claims actor has submitted, newest first.
func (s *Service) MyClaims(ctx context.Context, actor model.Actor) ([]model.Claim, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return store.ListClaims(ctx, s.DB, store.ClaimFilter{ClaimantID: actor.UserID})
}

// CountPendingClaims returns the number of claims awaiting a decision.
func (s *Service) CountPendingClaims(ctx context.Context, actor model.Actor) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	return store.CountClaims(ctx, s.DB, model.ClaimPending)
}

// ResolveClaim approves or rejects a pending claim through the configured
// ClaimResolver. Without a resolver, claims cannot be resolved.
func (s *Service) ResolveClaim(ctx context.Context, actor model.Actor, claimID int64, decision model.ClaimStatus) (*model.Claim, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if decision != model.ClaimApproved && decision != model.ClaimRejected {
		return nil, lifecycle.Validationf("decision must be %q or %q", model.ClaimApproved, model.ClaimRejected)
	}
	if s.Resolver == nil {
		return nil, lifecycle.Conflictf("claim resolution is not enabled")
	}

	var resolved *model.Claim
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		claim, err := store.GetClaim(ctx, tx, claimID)
		if err != nil {
			return err
		}
		if claim == nil {
			return lifecycle.NotFoundf("claim not found")
		}
		if claim.Status != model.ClaimPending {
			return lifecycle.Conflictf("claim has already been resolved")
		}

		if err := store.UpdateClaimStatus(ctx, tx, claim.ID, model.ClaimPending, decision); err != nil {
			if errors.Is(err, store.ErrStale) {
				return lifecycle.Conflictf("claim was modified concurrently")
			}
			return err
		}
		claim.Status = decision

		if err := s.Resolver.ResolveClaim(ctx, tx, claim, decision); err != nil {
			return err
		}
		resolved = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("claim resolved", "claim", resolved.ID, "decision", string(decision), "user", actor.Username)
	return resolved, nil
}
