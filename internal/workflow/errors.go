package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError maps offending field names to messages. All failing fields
// of a request are reported together, not just the first.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

// PermissionError is returned when a non-staff actor attempts a restricted
// action. It is checked before any field validation runs.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string { return e.Reason }

// NotFoundError is returned when a referenced item or person does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// ConflictError wraps a transient storage conflict, such as losing the
// username-uniqueness race repeatedly. The whole operation may be retried.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string { return fmt.Sprintf("transient conflict: %v", e.Err) }

func (e *ConflictError) Unwrap() error { return e.Err }
