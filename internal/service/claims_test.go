package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
)

func TestSubmitClaimDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.register(t, "Headphones", baseTime)

	claim, err := f.svc.SubmitClaim(ctx, f.studentB, item.ID, "it's mine")
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if claim.Status != model.ClaimPending || claim.ClaimantID != f.studentB.UserID {
		t.Errorf("unexpected claim %+v", claim)
	}
	if !claim.ClaimedAt.Equal(baseTime) {
		t.Errorf("expected claimed_at %v, got %v", baseTime, claim.ClaimedAt)
	}

	_, err = f.svc.SubmitClaim(ctx, f.studentB, item.ID, "still mine")
	if !errors.Is(err, lifecycle.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := f.svc.SubmitClaim(ctx, f.studentA, item.ID, "no, mine"); err != nil {
		t.Errorf("another claimant should be accepted: %v", err)
	}

	stored, _ := f.svc.GetItem(ctx, item.ID)
	if stored.Status != model.StatusLost || stored.ApprovalStatus != model.ApprovalPending {
		t.Errorf("claim changed item state to %s/%s", stored.Status, stored.ApprovalStatus)
	}
}

func TestSubmitClaimValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.register(t, "Headphones", baseTime)

	if _, err := f.svc.SubmitClaim(ctx, f.studentB, item.ID, "   "); !errors.Is(err, lifecycle.ErrValidation) {
		t.Errorf("expected validation error for blank reason, got %v", err)
	}
	long := strings.Repeat("x", model.MaxClaimReasonLength+1)
	if _, err := f.svc.SubmitClaim(ctx, f.studentB, item.ID, long); !errors.Is(err, lifecycle.ErrValidation) {
		t.Errorf("expected validation error for long reason, got %v", err)
	}
	if _, err := f.svc.SubmitClaim(ctx, f.studentB, "missing", "mine"); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.register(t, "Cap", baseTime)
	second := f.register(t, "Ball", baseTime)

	if _, err := f.svc.SubmitClaim(ctx, f.studentA, first.ID, "mine"); err != nil {
		t.Fatal(err)
	}
	f.clock = baseTime.Add(time.Hour)
	if _, err := f.svc.SubmitClaim(ctx, f.studentB, second.ID, "mine"); err != nil {
		t.Fatal(err)
	}

	claims, err := f.svc.ListClaims(ctx, f.admin, ClaimQuery{})
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 2 || claims[0].ItemID != second.ID {
		t.Fatalf("expected newest first, got %v", claims)
	}

	claims, err = f.svc.ListClaims(ctx, f.admin, ClaimQuery{Sort: "oldest"})
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 2 || claims[0].ItemID != first.ID {
		t.Fatalf("expected oldest first, got %v", claims)
	}

	claims, err = f.svc.ListClaims(ctx, f.admin, ClaimQuery{Status: "approved"})
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("expected no approved claims, got %d", len(claims))
	}

	if _, err := f.svc.ListClaims(ctx, f.admin, ClaimQuery{Status: "lost"}); !errors.Is(err, lifecycle.ErrValidation) {
		t.Errorf("expected validation error for bad status, got %v", err)
	}
	if _, err := f.svc.ListClaims(ctx, f.teacher, ClaimQuery{}); !errors.Is(err, lifecycle.ErrForbidden) {
		t.Errorf("expected forbidden for teacher, got %v", err)
	}

	count, err := f.svc.CountPendingClaims(ctx, f.admin)
	if err != nil {
		t.Fatalf("CountPendingClaims: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 pending claims, got %d", count)
	}

	mine, err := f.svc.MyClaims(ctx, f.studentA)
	if err != nil {
		t.Fatalf("MyClaims: %v", err)
	}
	if len(mine) != 1 || mine[0].ItemID != first.ID {
		t.Errorf("unexpected own claims %v", mine)
	}
}

func TestResolveClaimWithoutResolver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.register(t, "Cap", baseTime)
	claim, _ := f.svc.SubmitClaim(ctx, f.studentB, item.ID, "mine")

	_, err := f.svc.ResolveClaim(ctx, f.admin, claim.ID, model.ClaimApproved)
	if !errors.Is(err, lifecycle.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

type rejectOnlyResolver struct{}

func (rejectOnlyResolver) ResolveClaim(ctx context.Context, tx *sql.Tx, claim *model.Claim, decision model.ClaimStatus) error {
	if decision == model.ClaimRejected {
		return nil
	}
	return lifecycle.Conflictf("refusing %d", claim.ID)
}

func TestResolveClaimWithResolver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Resolver = rejectOnlyResolver{}
	item := f.register(t, "Cap", baseTime)
	claimA, _ := f.svc.SubmitClaim(ctx, f.studentA, item.ID, "mine")
	claimB, _ := f.svc.SubmitClaim(ctx, f.studentB, item.ID, "mine")

	rejected, err := f.svc.ResolveClaim(ctx, f.admin, claimA.ID, model.ClaimRejected)
	if err != nil {
		t.Fatalf("ResolveClaim: %v", err)
	}
	if rejected.Status != model.ClaimRejected {
		t.Errorf("expected rejected, got %q", rejected.Status)
	}
	if _, err := f.svc.ResolveClaim(ctx, f.admin, claimA.ID, model.ClaimApproved); !errors.Is(err, lifecycle.ErrConflict) {
		t.Errorf("expected conflict on resolved claim, got %v", err)
	}

	// A resolver failure rolls back the status change.
	if _, err := f.svc.ResolveClaim(ctx, f.admin, claimB.ID, model.ClaimApproved); !errors.Is(err, lifecycle.ErrConflict) {
		t.Fatalf("expected resolver conflict, got %v", err)
	}
	pending, _ := f.svc.ListClaims(ctx, f.admin, ClaimQuery{})
	if len(pending) != 1 || pending[0].ID != claimB.ID {
		t.Errorf("expected claim %d still pending, got %v", claimB.ID, pending)
	}

	if _, err := f.svc.ResolveClaim(ctx, f.admin, 999, model.ClaimRejected); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
