package service

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/store"
)

// SubmitDisposalHold records a staff justification for keeping an item that
// is waiting for disposal. It does not move the deadline by itself.
func (s *Service) SubmitDisposalHold(ctx context.Context, actor model.Actor, itemID, reason string, extensionDays int) (*model.DisposalHold, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, lifecycle.Validationf("reason is required")
	}
	if utf8.RuneCountInString(reason) > model.MaxHoldReasonLength {
		return nil, lifecycle.Validationf("reason must be at most %d characters", model.MaxHoldReasonLength)
	}
	if extensionDays < model.MinExtensionDays || extensionDays > model.MaxExtensionDays {
		return nil, lifecycle.Validationf("extension must be between %d and %d days", model.MinExtensionDays, model.MaxExtensionDays)
	}

	var hold *model.DisposalHold
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		item, err := store.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return lifecycle.NotFoundf("item not found")
		}
		if item.Status != model.StatusToBeDiscarded {
			return lifecycle.Conflictf("disposal holds can only be submitted for items waiting for disposal")
		}

		hold, err = store.CreateDisposalHold(ctx, tx, item.ID, actor.UserID, reason, extensionDays, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("disposal hold submitted", "hold", hold.ID, "item", itemID, "days", extensionDays, "user", actor.Username)
	return hold, nil
}

// GetDisposalHold returns the most recent hold for an item. When both from
// and to are given, only holds created on the days from through to are
// considered.
func (s *Service) GetDisposalHold(ctx context.Context, itemID string, from, to *time.Time) (*model.DisposalHold, error) {
	var start, end *time.Time
	if from != nil && to != nil {
		a := startOfDay(*from)
		b := startOfDay(*to)
		if b.Before(a) {
			return nil, lifecycle.Validationf("to must not be before from")
		}
		b = b.AddDate(0, 0, 1)
		start, end = &a, &b
	}

	hold, err := store.LatestDisposalHold(ctx, s.DB, itemID, start, end)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, lifecycle.NotFoundf("no disposal hold found")
	}
	return hold, nil
}

// ListDisposalHolds returns every hold submitted for an item, newest first.
func (s *Service) ListDisposalHolds(ctx context.Context, itemID string) ([]model.DisposalHold, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return store.ListDisposalHolds(ctx, s.DB, itemID)
}

// ApplyExtension pushes the item's discard deadline forward by the hold's
// extension. Applying the same hold again extends the deadline again.
func (s *Service) ApplyExtension(ctx context.Context, actor model.Actor, itemID string, holdID int64) (*model.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	hold, err := store.GetDisposalHold(ctx, s.DB, holdID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, lifecycle.NotFoundf("disposal hold not found")
	}
	if hold.ItemID != itemID {
		return nil, lifecycle.Validationf("disposal hold does not belong to this item")
	}

	item, err := s.transition(ctx, itemID, func(item *model.Item) error {
		return lifecycle.ExtendDisposal(item, hold.ExtensionDays)
	}, nil)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("disposal extended", "item", item.ID, "hold", hold.ID, "days", hold.ExtensionDays,
		"deadline", item.DiscardAt, "user", actor.Username)
	return item, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
