package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erazemk/izgubljeno/internal/imaging"
	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/store"
)

// RegisterLostItem records a newly found item as lost and pending approval.
func (s *Service) RegisterLostItem(ctx context.Context, actor model.Actor, n model.NewItem) (*model.Item, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	now := s.now()
	n.Name = strings.TrimSpace(n.Name)
	n.PlaceDetail = strings.TrimSpace(n.PlaceDetail)
	n.FoundAt = n.FoundAt.UTC().Truncate(time.Second)
	if err := lifecycle.ValidateNewItem(n, now); err != nil {
		return nil, err
	}

	place, err := store.GetPlace(ctx, s.DB, n.PlaceID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, lifecycle.NotFoundf("place not found")
	}

	item := &model.Item{
		Name:           n.Name,
		Category:       n.Category,
		FoundAt:        n.FoundAt,
		PlaceID:        n.PlaceID,
		PlaceDetail:    n.PlaceDetail,
		Status:         model.StatusLost,
		ApprovalStatus: model.ApprovalPending,
		ReportedBy:     actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateItem(ctx, s.DB, item); err != nil {
		return nil, err
	}

	s.Logger.Info("item registered", "item", item.ID, "name", item.Name, "user", actor.Username)
	return s.GetItem(ctx, item.ID)
}

// GetItem returns an item or a not-found error.
func (s *Service) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, lifecycle.NotFoundf("item not found")
	}
	return item, nil
}

// ListItems returns items matching the filter.
func (s *Service) ListItems(ctx context.Context, f store.ItemFilter) ([]model.Item, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, lifecycle.Validationf("unknown status %q", f.Status)
	}
	if f.ApprovalStatus != "" && !f.ApprovalStatus.Valid() {
		return nil, lifecycle.Validationf("unknown approval status %q", f.ApprovalStatus)
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, lifecycle.Validationf("unknown category %q", f.Category)
	}
	return store.ListItems(ctx, s.DB, f)
}

// ProcessApproval approves or rejects a pending item.
func (s *Service) ProcessApproval(ctx context.Context, actor model.Actor, itemID string, decision model.ApprovalStatus) (*model.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	now := s.now()
	item, err := s.transition(ctx, itemID, func(item *model.Item) error {
		return lifecycle.Approve(item, decision, actor.UserID, now)
	}, nil)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("item approval processed", "item", item.ID, "decision", string(decision), "user", actor.Username)
	return item, nil
}

// GiveToStudent hands the item to receiverID and records the hand-off.
func (s *Service) GiveToStudent(ctx context.Context, actor model.Actor, itemID string, receiverID int64) (*model.Item, *model.Give, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}

	receiver, err := store.GetActiveUser(ctx, s.DB, receiverID)
	if err != nil {
		return nil, nil, err
	}
	if receiver == nil {
		return nil, nil, lifecycle.NotFoundf("receiver not found")
	}
	if receiver.Role != model.RoleStudent {
		return nil, nil, lifecycle.Validationf("receiver must be a student")
	}

	now := s.now()
	var give *model.Give
	item, err := s.transition(ctx, itemID, func(item *model.Item) error {
		return lifecycle.Give(item, receiver.ID)
	}, func(tx *sql.Tx, item *model.Item) error {
		var err error
		give, err = store.CreateGive(ctx, tx, item.ID, actor.UserID, receiver.ID, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.Logger.Info("item given", "item", item.ID, "receiver", receiver.Username, "user", actor.Username)
	return item, give, nil
}

// ListGives returns hand-off records for an item, or all records if itemID
// is empty.
func (s *Service) ListGives(ctx context.Context, itemID string, userID int64) ([]model.Give, error) {
	return store.ListGives(ctx, s.DB, itemID, userID)
}

// DeleteItem removes an item and everything recorded about it.
func (s *Service) DeleteItem(ctx context.Context, actor model.Actor, itemID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	deleted, err := store.DeleteItem(ctx, s.DB, itemID)
	if err != nil {
		return err
	}
	if !deleted {
		return lifecycle.NotFoundf("item not found")
	}

	s.Logger.Info("item deleted", "item", itemID, "user", actor.Username)
	return nil
}

// SetItemImage processes and stores a photo of the item. Administrators and
// the user who reported the item may upload it.
func (s *Service) SetItemImage(ctx context.Context, actor model.Actor, itemID string, r io.Reader, opts imaging.Options) error {
	if err := requireUser(actor); err != nil {
		return err
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && item.ReportedBy != actor.UserID {
		return lifecycle.Forbiddenf("only the reporter or an administrator may change the photo")
	}

	photo, err := imaging.Process(r, opts)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			return lifecycle.Validationf("image is too large")
		}
		return lifecycle.Validationf("%v", err)
	}

	found, err := store.SetItemImage(ctx, s.DB, itemID, photo.Data, photo.Thumbnail, photo.MIME, s.now())
	if err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	if !found {
		return lifecycle.NotFoundf("item not found")
	}
	return nil
}

// MarkToBeDiscarded moves a lost item into the disposal queue. It is called
// by the scheduler.
func (s *Service) MarkToBeDiscarded(ctx context.Context, itemID string) (*model.Item, error) {
	return s.transition(ctx, itemID, func(item *model.Item) error {
		return lifecycle.MarkToBeDiscarded(item, s.Retention)
	}, nil)
}

// Discard marks a to-be-discarded item as discarded. It is called by the
// scheduler.
func (s *Service) Discard(ctx context.Context, itemID string) (*model.Item, error) {
	return s.transition(ctx, itemID, lifecycle.Discard, nil)
}

// ItemsDueForMarking returns lost items whose grace period has started.
func (s *Service) ItemsDueForMarking(ctx context.Context) ([]model.Item, error) {
	now := s.now()
	candidates, err := store.ListLostFoundBefore(ctx, s.DB, s.Retention.MarkingCutoff(now))
	if err != nil {
		return nil, err
	}

	due := candidates[:0]
	for _, item := range candidates {
		if s.Retention.MarkingDue(item.FoundAt, now) {
			due = append(due, item)
		}
	}
	return due, nil
}

// ItemsDueForDiscard returns to-be-discarded items whose deadline passed.
func (s *Service) ItemsDueForDiscard(ctx context.Context) ([]model.Item, error) {
	return store.ListDiscardDue(ctx, s.DB, s.now())
}

// ItemImage returns the item's photo, or its thumbnail, and the MIME type.
func (s *Service) ItemImage(ctx context.Context, itemID string, thumbnail bool) ([]byte, string, error) {
	data, mime, err := store.GetItemImage(ctx, s.DB, itemID, thumbnail)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", lifecycle.NotFoundf("no image")
	}
	return data, mime, nil
}
