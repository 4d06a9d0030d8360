// Package service implements the found-item workflows. Each exported method
// checks the actor's capability, loads the current state, applies a
// lifecycle transition and persists it together with any audit record in a
// single transaction.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/store"
)

// Service runs lifecycle operations against the database.
type Service struct {
	DB        *sql.DB
	Retention lifecycle.Retention
	Logger    *slog.Logger

	// Now returns the current time. Tests replace it to pin the clock.
	Now func() time.Time

	// Resolver handles claim decisions. Nil disables ResolveClaim.
	Resolver ClaimResolver
}

// New returns a Service using the wall clock and the default logger.
func New(db *sql.DB, retention lifecycle.Retention) *Service {
	return &Service{
		DB:        db,
		Retention: retention,
		Logger:    slog.Default(),
		Now:       time.Now,
	}
}

// now returns the current time in the form it is stored: UTC, whole seconds.
func (s *Service) now() time.Time {
	return s.Now().UTC().Truncate(time.Second)
}

// transition loads an item inside a transaction, lets mutate change it,
// writes it back conditionally on the state it was read in and then runs
// record, if any, in the same transaction.
func (s *Service) transition(ctx context.Context, itemID string, mutate func(item *model.Item) error, record func(tx *sql.Tx, item *model.Item) error) (*model.Item, error) {
	var updated *model.Item
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		item, err := store.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return lifecycle.NotFoundf("item not found")
		}

		prevStatus, prevApproval := item.Status, item.ApprovalStatus
		if err := mutate(item); err != nil {
			return err
		}
		item.UpdatedAt = s.now()

		if err := store.UpdateItemState(ctx, tx, item, prevStatus, prevApproval); err != nil {
			if errors.Is(err, store.ErrStale) {
				return lifecycle.Conflictf("item was modified concurrently")
			}
			return err
		}

		if record != nil {
			if err := record(tx, item); err != nil {
				return err
			}
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func requireAdmin(actor model.Actor) error {
	if !actor.IsAdmin() {
		return lifecycle.Forbiddenf("administrator role required")
	}
	return nil
}

func requireStaff(actor model.Actor) error {
	if !actor.IsStaff() {
		return lifecycle.Forbiddenf("teacher or administrator role required")
	}
	return nil
}

func requireUser(actor model.Actor) error {
	if actor.UserID <= 0 || !model.ValidRole(actor.Role) {
		return lifecycle.Forbiddenf("authentication required")
	}
	return nil
}
