package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/izgubljeno/internal/model"
)

// CreatePlace creates a new found-place.
func CreatePlace(ctx context.Context, db DBTX, name string) (*model.Place, error) {
	result, err := db.ExecContext(ctx, `INSERT INTO places (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating place: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting place id: %w", err)
	}
	return GetPlace(ctx, db, id)
}

// GetPlace returns a place by ID.
func GetPlace(ctx context.Context, db DBTX, id int64) (*model.Place, error) {
	p := &model.Place{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM places WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting place: %w", err)
	}
	return p, nil
}

// ListPlaces returns all places ordered by name.
func ListPlaces(ctx context.Context, db DBTX) ([]model.Place, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, created_at FROM places ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// RenamePlace changes a place's name.
func RenamePlace(ctx context.Context, db DBTX, id int64, name string) error {
	_, err := db.ExecContext(ctx, `UPDATE places SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("renaming place: %w", err)
	}
	return nil
}
