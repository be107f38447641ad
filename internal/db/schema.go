package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The last_status view resolves each
// item's most recent status event: greatest timestamp, ties broken by the id
// insertion sequence, so ordering never depends on incidental row order.
const schema = `
CREATE TABLE IF NOT EXISTS person (
    id            INTEGER PRIMARY KEY,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    email         TEXT NOT NULL DEFAULT '',
    username      TEXT NOT NULL,
    password_hash TEXT,
    is_active     INTEGER NOT NULL DEFAULT 1,
    is_staff      INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_person_username ON person(username);

CREATE TABLE IF NOT EXISTS category (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    machine_name TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS location (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS action (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    machine_name TEXT NOT NULL UNIQUE,
    weight       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS item (
    id                INTEGER PRIMARY KEY,
    location_id       INTEGER NOT NULL REFERENCES location(id),
    category_id       INTEGER NOT NULL REFERENCES category(id),
    description       TEXT NOT NULL,
    is_valuable       INTEGER NOT NULL DEFAULT 0,
    possible_owner_id INTEGER REFERENCES person(id),
    returned_to_id    INTEGER REFERENCES person(id),
    is_archived       INTEGER NOT NULL DEFAULT 0,
    photo             BLOB,
    photo_mime        TEXT
);

CREATE TABLE IF NOT EXISTS status (
    id           INTEGER PRIMARY KEY,
    item_id      INTEGER NOT NULL REFERENCES item(id),
    action_id    INTEGER NOT NULL REFERENCES action(id),
    performed_by INTEGER REFERENCES person(id),
    note         TEXT NOT NULL DEFAULT '',
    timestamp    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_status_item ON status(item_id, timestamp, id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE VIEW IF NOT EXISTS last_status AS
SELECT s.item_id AS item_id, s.id AS status_id, a.machine_name AS machine_name
FROM status s
JOIN action a ON a.id = s.action_id
WHERE s.id = (
    SELECT s2.id FROM status s2
    WHERE s2.item_id = s.item_id
    ORDER BY s2.timestamp DESC, s2.id DESC
    LIMIT 1
);
`

// EnsureSchema creates all tables, indexes and views if they don't already
// exist. Reference data is seeded by Migrate.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
