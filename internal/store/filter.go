package store

import (
	"context"
	"fmt"

	"github.com/oit-labs/lostfound/internal/model"
)

// View selectors for ItemFilter. Mutually exclusive; SelectActive is the
// default and hides archived items.
const (
	SelectActive   = "active"
	SelectArchived = "archived"
	SelectValuable = "valuable"
)

// Sort keys for ItemFilter.
const (
	SortFoundMostRecent  = "found-most-recent"
	SortFoundLeastRecent = "found-least-recent"
	SortLocation         = "location"
	SortCategory         = "category"
	SortDescription      = "description"
	SortPossibleOwner    = "possible-owner"
)

// ItemFilter describes a filtered, sorted view over items. Zero values mean
// "no constraint". CheckedInOnly is forced for non-staff views: only items
// whose current status is CHECKED_IN are returned, regardless of the other
// criteria.
type ItemFilter struct {
	LocationID    int64
	CategoryID    int64
	Select        string
	Keyword       string
	SortBy        string
	CheckedInOnly bool
}

// FilterItems returns items matching the filter, joined with their reference
// data and current status. The keyword matches case-insensitively against
// the description or the possible owner's last name. Explicit sort keys are
// tie-broken by reverse item id so equal keys order deterministically.
// Filtering is a read-only projection; nothing is mutated.
func FilterItems(ctx context.Context, db DBTX, f ItemFilter) ([]model.Item, error) {
	query := itemSelect + ` WHERE 1=1`
	var args []any

	switch f.Select {
	case SelectArchived:
		query += ` AND i.is_archived = 1`
	case SelectValuable:
		query += ` AND i.is_valuable = 1 AND i.is_archived = 0`
	default: // SelectActive
		query += ` AND i.is_archived = 0`
	}

	if f.LocationID > 0 {
		query += ` AND i.location_id = ?`
		args = append(args, f.LocationID)
	}
	if f.CategoryID > 0 {
		query += ` AND i.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Keyword != "" {
		query += ` AND (instr(lower(i.description), lower(?)) > 0
		            OR instr(lower(COALESCE(po.last_name, '')), lower(?)) > 0)`
		args = append(args, f.Keyword, f.Keyword)
	}
	if f.CheckedInOnly {
		query += ` AND ls.machine_name = ?`
		args = append(args, model.ActionCheckedIn)
	}

	switch f.SortBy {
	case SortFoundLeastRecent:
		query += ` ORDER BY i.id ASC`
	case SortLocation:
		query += ` ORDER BY l.name, i.id DESC`
	case SortCategory:
		query += ` ORDER BY c.name, i.id DESC`
	case SortDescription:
		query += ` ORDER BY i.description, i.id DESC`
	case SortPossibleOwner:
		query += ` ORDER BY po.last_name IS NULL, po.last_name, po.first_name, i.id DESC`
	default: // SortFoundMostRecent
		query += ` ORDER BY i.id DESC`
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItemRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
