package workflow

import (
	"strings"

	"github.com/oit-labs/lostfound/internal/model"
)

// requiredFields lists, per action, the request fields that must be
// non-empty. Actions not listed require nothing beyond an optional note.
// The table is consulted by a single generic validator so the per-action
// rules stay testable in one place.
var requiredFields = map[string][]string{
	model.ActionReturned: {"first_name", "last_name", "email"},
	model.ActionOther:    {"note"},
}

// fieldMessages holds the per-action validation messages.
var fieldMessages = map[string]map[string]string{
	model.ActionReturned: {
		"first_name": "First name is required when returning item.",
		"last_name":  "Last name is required when returning item.",
		"email":      "Email is required when returning item.",
	},
	model.ActionOther: {
		"note": "Note required when choosing action of type Other.",
	},
}

func (r *ActionRequest) field(name string) string {
	switch name {
	case "first_name":
		return r.FirstName
	case "last_name":
		return r.LastName
	case "email":
		return r.Email
	case "note":
		return r.Note
	}
	return ""
}

// validateAction checks the action tag and its required fields, collecting
// every failing field.
func validateAction(req *ActionRequest) ValidationError {
	if !model.KnownAction(req.Action) {
		return ValidationError{"action": "Select a valid action."}
	}

	errs := ValidationError{}
	for _, name := range requiredFields[req.Action] {
		if strings.TrimSpace(req.field(name)) == "" {
			errs[name] = fieldMessages[req.Action][name]
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateCheckIn checks the item-creation fields. The possible-owner triple
// is optional as a whole, but supplying any part of it requires all three.
func validateCheckIn(req *CheckInRequest) ValidationError {
	errs := ValidationError{}

	if req.LocationID == 0 {
		errs["location"] = "Location required"
	}
	if req.CategoryID == 0 {
		errs["category"] = "Category required"
	}
	if strings.TrimSpace(req.Description) == "" {
		errs["description"] = "Description required"
	}

	if req.hasOwner() {
		if strings.TrimSpace(req.OwnerFirstName) == "" {
			errs["first_name"] = "First name required"
		}
		if strings.TrimSpace(req.OwnerLastName) == "" {
			errs["last_name"] = "Last name required"
		}
		if strings.TrimSpace(req.OwnerEmail) == "" {
			errs["email"] = "Email required"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
