package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/izgubljeno/internal/model"
)

const itemColumns = `i.id, i.name, i.category, i.found_at, i.place_id, i.place_detail, i.image_mime,
	i.status, i.approval_status, i.discard_at, i.reported_by, i.approver_id, i.approved_at,
	i.holder_id, i.possessor_id, i.created_at, i.updated_at, p.name`

const itemFrom = ` FROM items i JOIN places p ON p.id = i.place_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var placeDetail, imageMime sql.NullString
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.FoundAt, &item.PlaceID, &placeDetail, &imageMime,
		&item.Status, &item.ApprovalStatus, &item.DiscardAt, &item.ReportedBy, &item.ApproverID, &item.ApprovedAt,
		&item.HolderID, &item.PossessorID, &item.CreatedAt, &item.UpdatedAt, &item.PlaceName)
	if err != nil {
		return nil, err
	}
	item.PlaceDetail = placeDetail.String
	item.ImageMime = imageMime.String
	return item, nil
}

// CreateItem inserts a new item. An ID is generated if the item has none.
func CreateItem(ctx context.Context, db DBTX, item *model.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, category, found_at, place_id, place_detail, status, approval_status,
		                    discard_at, reported_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, string(item.Category), item.FoundAt, item.PlaceID, item.PlaceDetail,
		string(item.Status), string(item.ApprovalStatus), item.DiscardAt, item.ReportedBy,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db DBTX, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemFrom+` WHERE i.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	Status         model.Status
	ApprovalStatus model.ApprovalStatus
	Category       model.Category
	PlaceID        int64
}

// ListItems returns items matching the filter, most recently found first.
func ListItems(ctx context.Context, db DBTX, f ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + itemFrom + ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND i.status = ?`
		args = append(args, string(f.Status))
	}
	if f.ApprovalStatus != "" {
		query += ` AND i.approval_status = ?`
		args = append(args, string(f.ApprovalStatus))
	}
	if f.Category != "" {
		query += ` AND i.category = ?`
		args = append(args, string(f.Category))
	}
	if f.PlaceID > 0 {
		query += ` AND i.place_id = ?`
		args = append(args, f.PlaceID)
	}
	query += ` ORDER BY i.found_at DESC, i.created_at DESC`

	return queryItems(ctx, db, "listing items", query, args...)
}

// ListLostFoundBefore returns lost items found at or before cutoff.
func ListLostFoundBefore(ctx context.Context, db DBTX, cutoff time.Time) ([]model.Item, error) {
	return queryItems(ctx, db, "listing lost items",
		`SELECT `+itemColumns+itemFrom+`
		 WHERE i.status = ? AND i.found_at <= ?
		 ORDER BY i.found_at`,
		string(model.StatusLost), cutoff,
	)
}

// ListDiscardDue returns to-be-discarded items whose deadline is at or
// before now.
func ListDiscardDue(ctx context.Context, db DBTX, now time.Time) ([]model.Item, error) {
	return queryItems(ctx, db, "listing items due for discard",
		`SELECT `+itemColumns+itemFrom+`
		 WHERE i.status = ? AND i.discard_at <= ?
		 ORDER BY i.discard_at`,
		string(model.StatusToBeDiscarded), now,
	)
}

func queryItems(ctx context.Context, db DBTX, op, query string, args ...any) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemState writes the lifecycle fields of item, but only if the
// stored row still has the given status and approval status. It returns
// ErrStale when the row changed underneath the caller.
func UpdateItemState(ctx context.Context, db DBTX, item *model.Item, prevStatus model.Status, prevApproval model.ApprovalStatus) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, approval_status = ?, discard_at = ?, approver_id = ?, approved_at = ?,
		                  holder_id = ?, possessor_id = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND approval_status = ?`,
		string(item.Status), string(item.ApprovalStatus), item.DiscardAt, item.ApproverID, item.ApprovedAt,
		item.HolderID, item.PossessorID, item.UpdatedAt,
		item.ID, string(prevStatus), string(prevApproval),
	)
	if err != nil {
		return fmt.Errorf("updating item state: %w", err)
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

// CountOpenItemsHeldBy counts items held by a user that are still lost or
// waiting to be discarded.
func CountOpenItemsHeldBy(ctx context.Context, db DBTX, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE holder_id = ? AND status IN (?, ?)`,
		userID, string(model.StatusLost), string(model.StatusToBeDiscarded),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting held items: %w", err)
	}
	return count, nil
}

// DeleteItem hard-deletes an item. Claims, disposal holds, rewards and gives
// referencing it are removed by the foreign key cascade. It reports whether
// a row was deleted.
func DeleteItem(ctx context.Context, db DBTX, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted rows: %w", err)
	}
	return n > 0, nil
}

// SetItemImage sets an item's image and thumbnail. It reports whether the
// item exists.
func SetItemImage(ctx context.Context, db DBTX, id string, image, thumbnail []byte, mime string, now time.Time) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, thumbnail = ?, image_mime = ?, updated_at = ? WHERE id = ?`,
		image, thumbnail, mime, now, id,
	)
	if err != nil {
		return false, fmt.Errorf("setting item image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking updated rows: %w", err)
	}
	return n > 0, nil
}

// GetItemImage returns an item's image (or its thumbnail) and MIME type.
func GetItemImage(ctx context.Context, db DBTX, id string, thumbnail bool) ([]byte, string, error) {
	column := "image"
	if thumbnail {
		column = "thumbnail"
	}

	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+column+`, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
