package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/erazemk/izgubljeno/internal/db"
	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/store"
)

var baseTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	clock    time.Time
	admin    model.Actor
	teacher  model.Actor
	studentA model.Actor
	studentB model.Actor
	place    *model.Place
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	f := &fixture{clock: baseTime}
	f.svc = New(database, lifecycle.DefaultRetention())
	f.svc.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc.Now = func() time.Time { return f.clock }

	actor := func(username, role string) model.Actor {
		u, err := store.CreateUser(ctx, database, username, "hash", role)
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		return model.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
	}
	f.admin = actor("admin", model.RoleAdmin)
	f.teacher = actor("marta", model.RoleTeacher)
	f.studentA = actor("ana", model.RoleStudent)
	f.studentB = actor("bor", model.RoleStudent)

	place, err := store.CreatePlace(ctx, database, "Library")
	if err != nil {
		t.Fatalf("CreatePlace: %v", err)
	}
	f.place = place
	return f
}

func (f *fixture) register(t *testing.T, name string, foundAt time.Time) *model.Item {
	t.Helper()
	item, err := f.svc.RegisterLostItem(context.Background(), f.studentA, model.NewItem{
		Name:     name,
		Category: model.CategoryElectronics,
		FoundAt:  foundAt,
		PlaceID:  f.place.ID,
	})
	if err != nil {
		t.Fatalf("RegisterLostItem: %v", err)
	}
	return item
}

// toBeDiscarded registers an item found long enough ago and marks it.
func (f *fixture) toBeDiscarded(t *testing.T, name string) *model.Item {
	t.Helper()
	item := f.register(t, name, f.clock.AddDate(0, -7, 0))
	item, err := f.svc.MarkToBeDiscarded(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("MarkToBeDiscarded: %v", err)
	}
	return item
}
