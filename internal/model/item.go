package model

import "time"

// Category is a small reference enumeration used to pick notification
// templates and drive filters. Admin-managed, immutable once seeded.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MachineName string `json:"machine_name,omitempty"`
}

// Category machine names with special handling.
const (
	CategoryUSB   = "USB"
	CategoryID    = "ID"
	CategoryOther = "OTHER"
)

// Location is a place items are found at or held in.
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a physical found object tracked through custody states. Items are
// created only by a check-in and are archived rather than deleted.
type Item struct {
	ID              int64  `json:"id"`
	LocationID      int64  `json:"location_id"`
	CategoryID      int64  `json:"category_id"`
	Description     string `json:"description"`
	IsValuable      bool   `json:"is_valuable"`
	PossibleOwnerID *int64 `json:"possible_owner_id,omitempty"`
	ReturnedToID    *int64 `json:"returned_to_id,omitempty"`
	IsArchived      bool   `json:"is_archived"`
	PhotoMime       string `json:"photo_mime,omitempty"`

	// Joined fields (not always populated).
	LocationName      string    `json:"location_name,omitempty"`
	CategoryName      string    `json:"category_name,omitempty"`
	CategoryTag       string    `json:"category_tag,omitempty"`
	PossibleOwnerName string    `json:"possible_owner_name,omitempty"`
	ReturnedToName    string    `json:"returned_to_name,omitempty"`
	CurrentAction     string    `json:"current_action,omitempty"`
	FoundOn           time.Time `json:"found_on"`
}
