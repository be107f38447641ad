package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{
	// Migration 1: seed the fixed action set. Weight drives display order,
	// heaviest first.
	`INSERT OR IGNORE INTO action (name, machine_name, weight) VALUES
	    ('Checked in', 'CHECKED_IN', 70),
	    ('Returned', 'RETURNED', 60),
	    ('Other', 'OTHER', 50),
	    ('Missing', 'MISSING', 40),
	    ('ID services', 'ID_SERVICES', 30),
	    ('CPSO', 'CPSO', 20),
	    ('Disposed', 'DISPOSED', 10)`,

	// Migration 2: seed the category reference set.
	`INSERT OR IGNORE INTO category (name, machine_name) VALUES
	    ('Other', 'OTHER'),
	    ('USB drive', 'USB'),
	    ('ID card', 'ID'),
	    ('Book', 'BOOK'),
	    ('Clothing', 'CLOTHING'),
	    ('Glasses', 'GLASSES'),
	    ('Headphones', 'HEADPHONES'),
	    ('Keys', 'KEYS'),
	    ('Music player', 'MUSIC'),
	    ('Phone', 'PHONE')`,
}

// Migrate ensures the schema and runs the migration list.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
