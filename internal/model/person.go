package model

import "time"

// Person is an identity record. Most rows are placeholders created when an
// item is checked in with a possible owner, or returned to someone without an
// account. Placeholders have a generated username and cannot log in.
type Person struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName returns "Last, First", falling back to the email when either name
// is missing.
func (p *Person) FullName() string {
	if p.FirstName != "" && p.LastName != "" {
		return p.LastName + ", " + p.FirstName
	}
	return p.Email
}
