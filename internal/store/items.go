package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oit-labs/lostfound/internal/model"
)

// itemSelect joins an item with its reference data, the possible owner and
// recipient names, the current status tag from the last_status view, and the
// timestamp of the initial check-in.
const itemSelect = `
	SELECT i.id, i.location_id, i.category_id, i.description, i.is_valuable,
	       i.possible_owner_id, i.returned_to_id, i.is_archived,
	       COALESCE(i.photo_mime, ''),
	       l.name, c.name, COALESCE(c.machine_name, ''),
	       COALESCE(CASE WHEN po.first_name != '' AND po.last_name != ''
	                     THEN po.last_name || ', ' || po.first_name
	                     ELSE po.email END, ''),
	       COALESCE(CASE WHEN rt.first_name != '' AND rt.last_name != ''
	                     THEN rt.last_name || ', ' || rt.first_name
	                     ELSE rt.email END, ''),
	       COALESCE(ls.machine_name, ''),
	       fs.found_on
	FROM item i
	JOIN location l ON l.id = i.location_id
	JOIN category c ON c.id = i.category_id
	LEFT JOIN person po ON po.id = i.possible_owner_id
	LEFT JOIN person rt ON rt.id = i.returned_to_id
	LEFT JOIN last_status ls ON ls.item_id = i.id
	LEFT JOIN (SELECT item_id, MIN(timestamp) AS found_on
	           FROM status GROUP BY item_id) fs ON fs.item_id = i.id`

func scanItemRow(scan func(dest ...any) error) (*model.Item, error) {
	item := &model.Item{}
	var foundOn sql.NullString
	err := scan(&item.ID, &item.LocationID, &item.CategoryID, &item.Description,
		&item.IsValuable, &item.PossibleOwnerID, &item.ReturnedToID,
		&item.IsArchived, &item.PhotoMime,
		&item.LocationName, &item.CategoryName, &item.CategoryTag,
		&item.PossibleOwnerName, &item.ReturnedToName,
		&item.CurrentAction, &foundOn)
	if err != nil {
		return nil, err
	}
	if foundOn.Valid {
		item.FoundOn, err = parseSQLiteTime(foundOn.String)
		if err != nil {
			return nil, err
		}
	}
	return item, nil
}

// parseSQLiteTime converts a datetime string returned by an SQL expression
// back into a time.Time. The MIN(timestamp) aggregate in itemSelect has no
// column declared type, so the driver hands it back as text instead of
// converting it the way it does for DATETIME columns.
func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing found_on timestamp %q", s)
}

// CreateItem inserts a new item row. Items are only created by the workflow
// engine's check-in path, which also appends the initial status event.
func CreateItem(ctx context.Context, db DBTX, locationID, categoryID int64, description string, isValuable bool, possibleOwnerID *int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO item (location_id, category_id, description, is_valuable, possible_owner_id)
		 VALUES (?, ?, ?, ?, ?)`,
		locationID, categoryID, description, isValuable, possibleOwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}
	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID with its joined fields populated.
func GetItem(ctx context.Context, db DBTX, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id)
	item, err := scanItemRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// SetItemReturnedTo updates the person an item was handed back to. Pass nil
// to clear the field when a return is reverted.
func SetItemReturnedTo(ctx context.Context, db DBTX, id int64, personID *int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE item SET returned_to_id = ? WHERE id = ?`, personID, id,
	)
	if err != nil {
		return fmt.Errorf("updating item returned_to: %w", err)
	}
	return nil
}

// SetItemArchived toggles the archived flag. Archived items disappear from
// default views but keep their full history.
func SetItemArchived(ctx context.Context, db DBTX, id int64, archived bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE item SET is_archived = ? WHERE id = ?`, archived, id,
	)
	if err != nil {
		return fmt.Errorf("updating item archived flag: %w", err)
	}
	return nil
}

// SetItemPhoto stores an item's photo.
func SetItemPhoto(ctx context.Context, db DBTX, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE item SET photo = ?, photo_mime = ? WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM item WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
