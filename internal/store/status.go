package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oit-labs/lostfound/internal/model"
)

// statusSelect joins each event with its action and performer. The person
// join is assembled as "Last, First" with an email fallback, matching
// model.Person.FullName.
const statusSelect = `
	SELECT s.id, s.item_id, s.action_id, s.performed_by, s.note, s.timestamp,
	       a.name, a.machine_name,
	       COALESCE(CASE WHEN p.first_name != '' AND p.last_name != ''
	                     THEN p.last_name || ', ' || p.first_name
	                     ELSE p.email END, '')
	FROM status s
	JOIN action a ON a.id = s.action_id
	LEFT JOIN person p ON p.id = s.performed_by`

func scanStatus(row *sql.Row) (*model.StatusEvent, error) {
	e := &model.StatusEvent{}
	err := row.Scan(&e.ID, &e.ItemID, &e.ActionID, &e.PerformedBy, &e.Note,
		&e.Timestamp, &e.ActionName, &e.ActionTag, &e.PerformedByName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	return e, nil
}

// AppendStatus inserts a new immutable status event for an item. The ledger
// is append-only: no update or delete path exists for status rows.
func AppendStatus(ctx context.Context, db DBTX, itemID int64, actionTag string, performedBy *int64, note string) (*model.StatusEvent, error) {
	action, err := GetAction(ctx, db, actionTag)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, fmt.Errorf("unknown action %q", actionTag)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO status (item_id, action_id, performed_by, note)
		 VALUES (?, ?, ?, ?)`,
		itemID, action.ID, performedBy, note,
	)
	if err != nil {
		return nil, fmt.Errorf("appending status: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting status id: %w", err)
	}
	return GetStatus(ctx, db, id)
}

// GetStatus returns a status event by ID.
func GetStatus(ctx context.Context, db DBTX, id int64) (*model.StatusEvent, error) {
	return scanStatus(db.QueryRowContext(ctx, statusSelect+` WHERE s.id = ?`, id))
}

// CurrentStatus returns the most recent status event for an item, or nil when
// the item has no history. "Most recent" is greatest timestamp, ties broken
// by insertion order.
func CurrentStatus(ctx context.Context, db DBTX, itemID int64) (*model.StatusEvent, error) {
	return scanStatus(db.QueryRowContext(ctx,
		statusSelect+` WHERE s.item_id = ? ORDER BY s.timestamp DESC, s.id DESC LIMIT 1`,
		itemID,
	))
}

// FirstStatus returns the oldest status event for an item, i.e. the check-in
// that created it, or nil when the item has no history.
func FirstStatus(ctx context.Context, db DBTX, itemID int64) (*model.StatusEvent, error) {
	return scanStatus(db.QueryRowContext(ctx,
		statusSelect+` WHERE s.item_id = ? ORDER BY s.timestamp ASC, s.id ASC LIMIT 1`,
		itemID,
	))
}

// ItemHistory returns all status events for an item, newest first.
func ItemHistory(ctx context.Context, db DBTX, itemID int64) ([]model.StatusEvent, error) {
	rows, err := db.QueryContext(ctx,
		statusSelect+` WHERE s.item_id = ? ORDER BY s.timestamp DESC, s.id DESC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item history: %w", err)
	}
	defer rows.Close()

	var events []model.StatusEvent
	for rows.Next() {
		var e model.StatusEvent
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ActionID, &e.PerformedBy, &e.Note,
			&e.Timestamp, &e.ActionName, &e.ActionTag, &e.PerformedByName); err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
