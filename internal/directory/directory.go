// Package directory defines the campus directory lookup contract and the
// group-to-privilege mapping used when provisioning login accounts. The
// directory itself (LDAP, CAS attribute release, ...) is an external
// collaborator.
package directory

import "context"

// Entry is one directory record returned by a lookup.
type Entry struct {
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Groups    []string `json:"groups"`
}

// Lookup queries the directory for entries matching a query fragment.
type Lookup interface {
	Search(ctx context.Context, query string) ([]Entry, error)
}

// Verify reports whether username exists in the directory. A lookup failure
// counts as absent: callers requiring verification treat that as a field
// validation failure, never as a fatal error.
func Verify(ctx context.Context, l Lookup, username string) bool {
	if l == nil || username == "" {
		return false
	}
	entries, err := l.Search(ctx, username)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Username == username {
			return true
		}
	}
	return false
}

// Rules maps directory group memberships to account privileges.
type Rules struct {
	// StaffGroups grant the staff flag (and imply membership).
	StaffGroups []string
	// MemberGroups grant login eligibility without staff privileges.
	MemberGroups []string
}

// Classify returns the staff and active flags for a set of group
// memberships. Pure function: no directory access, no stored state.
func (r Rules) Classify(groups []string) (isStaff, isActive bool) {
	member := make(map[string]bool, len(groups))
	for _, g := range groups {
		member[g] = true
	}
	for _, g := range r.StaffGroups {
		if member[g] {
			isStaff = true
		}
	}
	for _, g := range r.MemberGroups {
		if member[g] {
			isActive = true
		}
	}
	if isStaff {
		isActive = true
	}
	return isStaff, isActive
}
