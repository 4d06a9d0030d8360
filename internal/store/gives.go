package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izgubljeno/internal/model"
)

const giveSelect = `SELECT g.id, g.item_id, g.giver_id, g.receiver_id, g.given_at,
	        i.name AS item_name, gu.username AS giver_username, ru.username AS receiver_username
	 FROM gives g
	 JOIN items i ON i.id = g.item_id
	 JOIN users gu ON gu.id = g.giver_id
	 JOIN users ru ON ru.id = g.receiver_id`

// CreateGive appends a hand-off record. Callers run it in the same
// transaction as the item's status change.
func CreateGive(ctx context.Context, db DBTX, itemID string, giverID, receiverID int64, givenAt time.Time) (*model.Give, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO gives (item_id, giver_id, receiver_id, given_at) VALUES (?, ?, ?, ?)`,
		itemID, giverID, receiverID, givenAt,
	)
	if err != nil {
		return nil, fmt.Errorf("recording give: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting give id: %w", err)
	}
	return GetGive(ctx, db, id)
}

// GetGive returns a give record by ID.
func GetGive(ctx context.Context, db DBTX, id int64) (*model.Give, error) {
	g := &model.Give{}
	err := db.QueryRowContext(ctx, giveSelect+` WHERE g.id = ?`, id).Scan(
		&g.ID, &g.ItemID, &g.GiverID, &g.ReceiverID, &g.GivenAt,
		&g.ItemName, &g.GiverUsername, &g.ReceiverUsername,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting give: %w", err)
	}
	return g, nil
}

// ListGives returns give records, optionally filtered by item or by a user
// on either side of the hand-off.
func ListGives(ctx context.Context, db DBTX, itemID string, userID int64) ([]model.Give, error) {
	query := giveSelect + ` WHERE 1=1`
	var args []any

	if itemID != "" {
		query += ` AND g.item_id = ?`
		args = append(args, itemID)
	}
	if userID > 0 {
		query += ` AND (g.giver_id = ? OR g.receiver_id = ?)`
		args = append(args, userID, userID)
	}
	query += ` ORDER BY g.given_at DESC, g.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing gives: %w", err)
	}
	defer rows.Close()

	var gives []model.Give
	for rows.Next() {
		var g model.Give
		if err := rows.Scan(&g.ID, &g.ItemID, &g.GiverID, &g.ReceiverID, &g.GivenAt,
			&g.ItemName, &g.GiverUsername, &g.ReceiverUsername); err != nil {
			return nil, fmt.Errorf("scanning give: %w", err)
		}
		gives = append(gives, g)
	}
	return gives, rows.Err()
}
