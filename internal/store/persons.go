package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/oit-labs/lostfound/internal/model"
)

// ErrUsernameConflict is returned when placeholder creation keeps losing the
// username-uniqueness race. Callers may retry the whole operation.
var ErrUsernameConflict = errors.New("username conflict persists")

// placeholderAttempts bounds the retry loop around the uniqueness race.
const placeholderAttempts = 5

const personColumns = `id, first_name, last_name, email, username,
	 COALESCE(password_hash, ''), is_active, is_staff, created_at`

func scanPerson(row *sql.Row) (*model.Person, error) {
	p := &model.Person{}
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Username,
		&p.PasswordHash, &p.IsActive, &p.IsStaff, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning person: %w", err)
	}
	return p, nil
}

// GetPerson returns a person by ID.
func GetPerson(ctx context.Context, db DBTX, id int64) (*model.Person, error) {
	return scanPerson(db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM person WHERE id = ?`, id,
	))
}

// GetPersonByUsername returns a person by username.
func GetPersonByUsername(ctx context.Context, db DBTX, username string) (*model.Person, error) {
	return scanPerson(db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM person WHERE username = ?`, username,
	))
}

// FindPersonExact returns the person matching first name, last name and email
// exactly (case-sensitive on all three fields), or nil when no such person
// exists. Multiple matches resolve to the oldest record.
func FindPersonExact(ctx context.Context, db DBTX, firstName, lastName, email string) (*model.Person, error) {
	return scanPerson(db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM person
		 WHERE first_name = ? AND last_name = ? AND email = ?
		 ORDER BY id LIMIT 1`,
		firstName, lastName, email,
	))
}

// CreatePlaceholder creates an inactive, non-staff person with a generated
// username of the form "_" + firstName + lastName + N, where N is the
// smallest non-negative integer not already taken. The probe is not race-free
// under concurrent creation, so the insert relies on the unique username
// index and re-probes on conflict a bounded number of times.
func CreatePlaceholder(ctx context.Context, db DBTX, firstName, lastName, email string) (*model.Person, error) {
	base := "_" + firstName + lastName

	for attempt := 0; attempt < placeholderAttempts; attempt++ {
		username, err := probeUsername(ctx, db, base)
		if err != nil {
			return nil, err
		}

		result, err := db.ExecContext(ctx,
			`INSERT INTO person (first_name, last_name, email, username, is_active, is_staff)
			 VALUES (?, ?, ?, ?, 0, 0)`,
			firstName, lastName, email, username,
		)
		if isUniqueViolation(err) {
			continue // lost the race, probe again
		}
		if err != nil {
			return nil, fmt.Errorf("creating placeholder person: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting person id: %w", err)
		}
		return GetPerson(ctx, db, id)
	}

	return nil, ErrUsernameConflict
}

// probeUsername finds the smallest free numeric suffix for base.
func probeUsername(ctx context.Context, db DBTX, base string) (string, error) {
	for n := 0; ; n++ {
		username := base + strconv.Itoa(n)
		var taken int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM person WHERE username = ?`, username,
		).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("probing username: %w", err)
		}
		if taken == 0 {
			return username, nil
		}
	}
}

// ResolveOrCreatePerson finds a person by exact identity match, creating an
// inactive placeholder when none exists. This is the canonical entry point
// used whenever a transition references a person by name and email.
func ResolveOrCreatePerson(ctx context.Context, db DBTX, firstName, lastName, email string) (*model.Person, error) {
	person, err := FindPersonExact(ctx, db, firstName, lastName, email)
	if err != nil {
		return nil, err
	}
	if person != nil {
		return person, nil
	}
	return CreatePlaceholder(ctx, db, firstName, lastName, email)
}

// CreateLoginPerson creates a login-capable person with an explicit username.
// Used for staff bootstrap and directory-provisioned accounts.
func CreateLoginPerson(ctx context.Context, db DBTX, firstName, lastName, email, username, passwordHash string, isStaff bool) (*model.Person, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO person (first_name, last_name, email, username, password_hash, is_active, is_staff)
		 VALUES (?, ?, ?, ?, NULLIF(?, ''), 1, ?)`,
		firstName, lastName, email, username, passwordHash, isStaff,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("username %q: %w", username, ErrUsernameConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating person: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting person id: %w", err)
	}
	return GetPerson(ctx, db, id)
}

// SetPersonFlags updates the active and staff flags.
func SetPersonFlags(ctx context.Context, db DBTX, id int64, isActive, isStaff bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE person SET is_active = ?, is_staff = ? WHERE id = ?`,
		isActive, isStaff, id,
	)
	if err != nil {
		return fmt.Errorf("updating person flags: %w", err)
	}
	return nil
}

// SetPersonPassword updates a person's password hash.
func SetPersonPassword(ctx context.Context, db DBTX, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE person SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating person password: %w", err)
	}
	return nil
}

// ListPersons returns all persons ordered by last then first name.
func ListPersons(ctx context.Context, db DBTX) ([]model.Person, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM person ORDER BY last_name, first_name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	defer rows.Close()

	var persons []model.Person
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Username,
			&p.PasswordHash, &p.IsActive, &p.IsStaff, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}
