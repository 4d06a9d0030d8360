package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izgubljeno/internal/model"
)

// CreateReward records a reward. The unique index on item_id rejects a
// second reward for the same item.
func CreateReward(ctx context.Context, db DBTX, itemID string, studentID, grantedBy int64, createdAt time.Time) (*model.Reward, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO rewards (item_id, student_id, granted_by, created_at) VALUES (?, ?, ?, ?)`,
		itemID, studentID, grantedBy, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reward: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting reward id: %w", err)
	}

	r := &model.Reward{}
	err = db.QueryRowContext(ctx,
		`SELECT id, item_id, student_id, granted_by, created_at FROM rewards WHERE id = ?`, id,
	).Scan(&r.ID, &r.ItemID, &r.StudentID, &r.GrantedBy, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting reward: %w", err)
	}
	return r, nil
}

// RewardExists reports whether the item already has a reward.
func RewardExists(ctx context.Context, db DBTX, itemID string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rewards WHERE item_id = ?`, itemID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking reward: %w", err)
	}
	return count > 0, nil
}

// ListRewards returns rewards, optionally filtered by student, newest first.
func ListRewards(ctx context.Context, db DBTX, studentID int64) ([]model.Reward, error) {
	var rows *sql.Rows
	var err error

	if studentID > 0 {
		rows, err = db.QueryContext(ctx,
			`SELECT id, item_id, student_id, granted_by, created_at
			 FROM rewards WHERE student_id = ? ORDER BY created_at DESC, id DESC`, studentID,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, item_id, student_id, granted_by, created_at
			 FROM rewards ORDER BY created_at DESC, id DESC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		var r model.Reward
		if err := rows.Scan(&r.ID, &r.ItemID, &r.StudentID, &r.GrantedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reward: %w", err)
		}
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}
