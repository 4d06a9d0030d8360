package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/izgubljeno/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.item(t, "Laptop", baseTime.AddDate(0, 0, -1))
	if item.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := GetItem(ctx, f.db, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil {
		t.Fatal("expected item, got nil")
	}
	if got.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %q", got.Name)
	}
	if got.Status != model.StatusLost || got.ApprovalStatus != model.ApprovalPending {
		t.Errorf("unexpected state %q/%q", got.Status, got.ApprovalStatus)
	}
	if !got.FoundAt.Equal(item.FoundAt) {
		t.Errorf("expected found_at %v, got %v", item.FoundAt, got.FoundAt)
	}
	if got.PlaceName != "Gym" {
		t.Errorf("expected place name 'Gym', got %q", got.PlaceName)
	}
	if got.DiscardAt != nil || got.ApproverID != nil || got.PossessorID != nil {
		t.Errorf("expected nullable fields to be nil: %+v", got)
	}

	missing, err := GetItem(ctx, f.db, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing item, got %v, %v", missing, err)
	}
}

func TestListItemsFiltered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.item(t, "Old", baseTime.AddDate(0, 0, -5))
	newer := f.item(t, "New", baseTime.AddDate(0, 0, -1))

	newer.ApprovalStatus = model.ApprovalApproved
	if err := UpdateItemState(ctx, f.db, newer, model.StatusLost, model.ApprovalPending); err != nil {
		t.Fatalf("UpdateItemState: %v", err)
	}

	all, _ := ListItems(ctx, f.db, ItemFilter{})
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
	if all[0].Name != "New" {
		t.Errorf("expected most recently found first, got %q", all[0].Name)
	}

	approved, _ := ListItems(ctx, f.db, ItemFilter{ApprovalStatus: model.ApprovalApproved})
	if len(approved) != 1 || approved[0].ID != newer.ID {
		t.Errorf("expected only the approved item, got %v", approved)
	}

	given, _ := ListItems(ctx, f.db, ItemFilter{Status: model.StatusGiven})
	if len(given) != 0 {
		t.Errorf("expected no given items, got %d", len(given))
	}
}

func TestUpdateItemStateDetectsStaleRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.item(t, "Scarf", baseTime)
	deadline := baseTime.AddDate(0, 6, 0)
	item.Status = model.StatusToBeDiscarded
	item.DiscardAt = &deadline

	if err := UpdateItemState(ctx, f.db, item, model.StatusLost, model.ApprovalPending); err != nil {
		t.Fatalf("UpdateItemState: %v", err)
	}

	// Same expectation again: the row is no longer lost.
	item.Status = model.StatusDiscarded
	err := UpdateItemState(ctx, f.db, item, model.StatusLost, model.ApprovalPending)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}

	got, _ := GetItem(ctx, f.db, item.ID)
	if got.Status != model.StatusToBeDiscarded {
		t.Errorf("stale update changed status to %q", got.Status)
	}
	if got.DiscardAt == nil || !got.DiscardAt.Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, got.DiscardAt)
	}
}

func TestCountOpenItemsHeldBy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, status := range []model.Status{model.StatusLost, model.StatusGiven} {
		item := f.item(t, "Umbrella", baseTime)
		item.ApprovalStatus = model.ApprovalApproved
		item.HolderID = &f.admin.ID
		item.Status = status
		if err := UpdateItemState(ctx, f.db, item, model.StatusLost, model.ApprovalPending); err != nil {
			t.Fatalf("UpdateItemState: %v", err)
		}
	}
	f.item(t, "Unapproved", baseTime)

	count, err := CountOpenItemsHeldBy(ctx, f.db, f.admin.ID)
	if err != nil {
		t.Fatalf("CountOpenItemsHeldBy: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 open held item, got %d", count)
	}
}

func TestListLostFoundBeforeIsInclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cutoff := baseTime.AddDate(0, -6, 0)
	atCutoff := f.item(t, "At cutoff", cutoff)
	f.item(t, "After cutoff", cutoff.Add(time.Second))
	before := f.item(t, "Before cutoff", cutoff.AddDate(0, 0, -3))

	items, err := ListLostFoundBefore(ctx, f.db, cutoff)
	if err != nil {
		t.Fatalf("ListLostFoundBefore: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != before.ID || items[1].ID != atCutoff.ID {
		t.Errorf("unexpected order: %q, %q", items[0].Name, items[1].Name)
	}
}

func TestListDiscardDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	due := f.item(t, "Due", baseTime.AddDate(0, -7, 0))
	notDue := f.item(t, "Not due", baseTime.AddDate(0, -6, 5))
	f.item(t, "Still lost", baseTime.AddDate(0, -8, 0))

	for _, item := range []*model.Item{due, notDue} {
		deadline := item.FoundAt.AddDate(0, 6, 0)
		item.Status = model.StatusToBeDiscarded
		item.DiscardAt = &deadline
		if err := UpdateItemState(ctx, f.db, item, model.StatusLost, model.ApprovalPending); err != nil {
			t.Fatalf("UpdateItemState: %v", err)
		}
	}

	items, err := ListDiscardDue(ctx, f.db, baseTime)
	if err != nil {
		t.Fatalf("ListDiscardDue: %v", err)
	}
	if len(items) != 1 || items[0].ID != due.ID {
		t.Errorf("expected only %q, got %v", due.Name, items)
	}
}

func TestDeleteItemCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.item(t, "Phone", baseTime)
	if _, err := CreateClaim(ctx, f.db, item.ID, f.student.ID, "mine", baseTime); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if _, err := CreateDisposalHold(ctx, f.db, item.ID, f.admin.ID, "wait", 7, baseTime); err != nil {
		t.Fatalf("CreateDisposalHold: %v", err)
	}
	if _, err := CreateReward(ctx, f.db, item.ID, f.student.ID, f.admin.ID, baseTime); err != nil {
		t.Fatalf("CreateReward: %v", err)
	}
	if _, err := CreateGive(ctx, f.db, item.ID, f.admin.ID, f.student.ID, baseTime); err != nil {
		t.Fatalf("CreateGive: %v", err)
	}

	deleted, err := DeleteItem(ctx, f.db, item.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteItem: deleted=%v err=%v", deleted, err)
	}

	for _, table := range []string{"claims", "disposal_holds", "rewards", "gives"} {
		var n int
		f.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
		if n != 0 {
			t.Errorf("expected %s to be empty after delete, got %d rows", table, n)
		}
	}

	deleted, _ = DeleteItem(ctx, f.db, item.ID)
	if deleted {
		t.Error("expected second delete to report nothing deleted")
	}
}

func TestItemImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.item(t, "Photo Item", baseTime)
	ok, err := SetItemImage(ctx, f.db, item.ID, []byte("full"), []byte("thumb"), "image/jpeg", baseTime)
	if err != nil || !ok {
		t.Fatalf("SetItemImage: ok=%v err=%v", ok, err)
	}

	data, mime, err := GetItemImage(ctx, f.db, item.ID, false)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if string(data) != "full" || mime != "image/jpeg" {
		t.Errorf("unexpected image %q (%s)", data, mime)
	}

	thumb, _, _ := GetItemImage(ctx, f.db, item.ID, true)
	if string(thumb) != "thumb" {
		t.Errorf("expected thumbnail, got %q", thumb)
	}

	ok, _ = SetItemImage(ctx, f.db, "missing", []byte("x"), nil, "image/jpeg", baseTime)
	if ok {
		t.Error("expected false for missing item")
	}
}
