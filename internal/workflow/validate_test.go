package workflow

import (
	"testing"

	"github.com/oit-labs/lostfound/internal/model"
)

func TestValidateActionRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		req     ActionRequest
		missing []string
	}{
		{"returned all missing", ActionRequest{Action: model.ActionReturned},
			[]string{"first_name", "last_name", "email"}},
		{"returned complete", ActionRequest{Action: model.ActionReturned,
			FirstName: "Jamie", LastName: "Doe", Email: "jamie@example.edu"}, nil},
		{"other without note", ActionRequest{Action: model.ActionOther}, []string{"note"}},
		{"other with note", ActionRequest{Action: model.ActionOther, Note: "in safe"}, nil},
		{"missing requires nothing", ActionRequest{Action: model.ActionMissing}, nil},
		{"disposed requires nothing", ActionRequest{Action: model.ActionDisposed}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateAction(&tt.req)
			if tt.missing == nil {
				if errs != nil {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if len(errs) != len(tt.missing) {
				t.Fatalf("expected %d errors, got %v", len(tt.missing), errs)
			}
			for _, field := range tt.missing {
				if errs[field] == "" {
					t.Errorf("expected a message for field %q", field)
				}
			}
		})
	}
}

func TestValidateActionUnknownTag(t *testing.T) {
	errs := validateAction(&ActionRequest{Action: "TELEPORTED"})
	if errs["action"] != "Select a valid action." {
		t.Errorf("unexpected message: %v", errs)
	}
}

func TestValidateActionWhitespaceOnly(t *testing.T) {
	errs := validateAction(&ActionRequest{Action: model.ActionOther, Note: "  \t "})
	if errs["note"] == "" {
		t.Error("expected whitespace-only note rejected")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{"note": "Note required.", "action": "Select a valid action."}
	// Fields are listed in sorted order so messages are deterministic.
	want := "invalid fields: action, note"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
