package model

import "time"

// StatusEvent is one immutable record of an action applied to an item.
// Events are never edited or deleted; an item's current status is the event
// with the greatest timestamp, ties broken by insertion order (id).
type StatusEvent struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	ActionID    int64     `json:"action_id"`
	PerformedBy *int64    `json:"performed_by,omitempty"`
	Note        string    `json:"note,omitempty"`
	Timestamp   time.Time `json:"timestamp"`

	// Joined fields (not always populated).
	ActionName      string `json:"action_name,omitempty"`
	ActionTag       string `json:"action_tag,omitempty"`
	PerformedByName string `json:"performed_by_name,omitempty"`
}
