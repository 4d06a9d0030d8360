package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izgubljeno/internal/model"
)

const claimSelect = `SELECT c.id, c.item_id, c.claimant_id, c.reason, c.status, c.claimed_at,
	        i.name AS item_name, u.username AS claimant_username
	 FROM claims c
	 JOIN items i ON i.id = c.item_id
	 JOIN users u ON u.id = c.claimant_id`

// CreateClaim records a pending claim.
func CreateClaim(ctx context.Context, db DBTX, itemID string, claimantID int64, reason string, claimedAt time.Time) (*model.Claim, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO claims (item_id, claimant_id, reason, status, claimed_at) VALUES (?, ?, ?, ?, ?)`,
		itemID, claimantID, reason, string(model.ClaimPending), claimedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}
	return GetClaim(ctx, db, id)
}

// ClaimExists reports whether claimantID already claimed itemID.
func ClaimExists(ctx context.Context, db DBTX, itemID string, claimantID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE item_id = ? AND claimant_id = ?`, itemID, claimantID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking claim: %w", err)
	}
	return count > 0, nil
}

// GetClaim returns a claim by ID.
func GetClaim(ctx context.Context, db DBTX, id int64) (*model.Claim, error) {
	c := &model.Claim{}
	err := db.QueryRowContext(ctx, claimSelect+` WHERE c.id = ?`, id).Scan(
		&c.ID, &c.ItemID, &c.ClaimantID, &c.Reason, &c.Status, &c.ClaimedAt, &c.ItemName, &c.ClaimantUsername,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// ClaimFilter narrows ListClaims. Zero values match everything.
type ClaimFilter struct {
	Status      model.ClaimStatus
	ItemID      string
	ClaimantID  int64
	OldestFirst bool
}

// ListClaims returns claims matching the filter, newest first unless
// OldestFirst is set.
func ListClaims(ctx context.Context, db DBTX, f ClaimFilter) ([]model.Claim, error) {
	query := claimSelect + ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND c.status = ?`
		args = append(args, string(f.Status))
	}
	if f.ItemID != "" {
		query += ` AND c.item_id = ?`
		args = append(args, f.ItemID)
	}
	if f.ClaimantID > 0 {
		query += ` AND c.claimant_id = ?`
		args = append(args, f.ClaimantID)
	}
	if f.OldestFirst {
		query += ` ORDER BY c.claimed_at ASC, c.id ASC`
	} else {
		query += ` ORDER BY c.claimed_at DESC, c.id DESC`
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.ItemID, &c.ClaimantID, &c.Reason, &c.Status, &c.ClaimedAt,
			&c.ItemName, &c.ClaimantUsername); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// CountClaims returns the number of claims with the given status.
func CountClaims(ctx context.Context, db DBTX, status model.ClaimStatus) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE status = ?`, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting claims: %w", err)
	}
	return count, nil
}

// UpdateClaimStatus moves a claim from one status to another. It returns
// ErrStale if the claim is no longer in status from.
func UpdateClaimStatus(ctx context.Context, db DBTX, id int64, from, to model.ClaimStatus) error {
	result, err := db.ExecContext(ctx,
		`UPDATE claims SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating claim status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}
