package model

// Action is a named, weighted status transition type. Weight defines the
// default display order (heaviest first).
type Action struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MachineName string `json:"machine_name"`
	Weight      int    `json:"weight"`
}

// Action machine names.
const (
	ActionCheckedIn  = "CHECKED_IN"
	ActionReturned   = "RETURNED"
	ActionOther      = "OTHER"
	ActionMissing    = "MISSING"
	ActionDisposed   = "DISPOSED"
	ActionIDServices = "ID_SERVICES"
	ActionCPSO       = "CPSO"
)

// KnownAction reports whether tag is one of the seeded action machine names.
func KnownAction(tag string) bool {
	switch tag {
	case ActionCheckedIn, ActionReturned, ActionOther, ActionMissing,
		ActionDisposed, ActionIDServices, ActionCPSO:
		return true
	}
	return false
}
