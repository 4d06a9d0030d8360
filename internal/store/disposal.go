package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izgubljeno/internal/model"
)

const holdColumns = `id, item_id, staff_id, reason, extension_days, created_at`

func scanHold(row rowScanner) (*model.DisposalHold, error) {
	h := &model.DisposalHold{}
	if err := row.Scan(&h.ID, &h.ItemID, &h.StaffID, &h.Reason, &h.ExtensionDays, &h.CreatedAt); err != nil {
		return nil, err
	}
	return h, nil
}

// CreateDisposalHold appends a disposal hold. Holds are never updated.
func CreateDisposalHold(ctx context.Context, db DBTX, itemID string, staffID int64, reason string, extensionDays int, createdAt time.Time) (*model.DisposalHold, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO disposal_holds (item_id, staff_id, reason, extension_days, created_at) VALUES (?, ?, ?, ?, ?)`,
		itemID, staffID, reason, extensionDays, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating disposal hold: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting disposal hold id: %w", err)
	}
	return GetDisposalHold(ctx, db, id)
}

// GetDisposalHold returns a disposal hold by ID.
func GetDisposalHold(ctx context.Context, db DBTX, id int64) (*model.DisposalHold, error) {
	h, err := scanHold(db.QueryRowContext(ctx,
		`SELECT `+holdColumns+` FROM disposal_holds WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting disposal hold: %w", err)
	}
	return h, nil
}

// LatestDisposalHold returns the most recent hold for an item. If from and
// to are both non-nil, only holds created in [from, to) are considered.
func LatestDisposalHold(ctx context.Context, db DBTX, itemID string, from, to *time.Time) (*model.DisposalHold, error) {
	query := `SELECT ` + holdColumns + ` FROM disposal_holds WHERE item_id = ?`
	args := []any{itemID}

	if from != nil && to != nil {
		query += ` AND created_at >= ? AND created_at < ?`
		args = append(args, *from, *to)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`

	h, err := scanHold(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest disposal hold: %w", err)
	}
	return h, nil
}

// ListDisposalHolds returns all holds for an item, newest first.
func ListDisposalHolds(ctx context.Context, db DBTX, itemID string) ([]model.DisposalHold, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+holdColumns+` FROM disposal_holds WHERE item_id = ? ORDER BY created_at DESC, id DESC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing disposal holds: %w", err)
	}
	defer rows.Close()

	var holds []model.DisposalHold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning disposal hold: %w", err)
		}
		holds = append(holds, *h)
	}
	return holds, rows.Err()
}
