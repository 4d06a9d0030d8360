package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/izgubljeno/internal/db"
	"github.com/erazemk/izgubljeno/internal/model"
)

var baseTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db      *sql.DB
	admin   *model.User
	student *model.User
	place   *model.Place
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin, err := CreateUser(ctx, database, "admin", "hash", model.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	student, err := CreateUser(ctx, database, "ana", "hash", model.RoleStudent)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	place, err := CreatePlace(ctx, database, "Gym")
	if err != nil {
		t.Fatalf("CreatePlace: %v", err)
	}
	return &fixture{db: database, admin: admin, student: student, place: place}
}

func (f *fixture) item(t *testing.T, name string, foundAt time.Time) *model.Item {
	t.Helper()
	item := &model.Item{
		Name:           name,
		Category:       model.CategoryOther,
		FoundAt:        foundAt,
		PlaceID:        f.place.ID,
		Status:         model.StatusLost,
		ApprovalStatus: model.ApprovalPending,
		ReportedBy:     f.student.ID,
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
	}
	if err := CreateItem(context.Background(), f.db, item); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}
