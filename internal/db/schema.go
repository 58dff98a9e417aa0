package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The first eight columns of both tables
// keep the order used by existing databases.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT,
    description   TEXT,
    address       TEXT,
    contact_phone TEXT,
    contact_email TEXT,
    category      TEXT,
    attributes    TEXT,
    photo         BLOB,
    photo_mime    TEXT
);

CREATE TABLE IF NOT EXISTS deleted_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT,
    description   TEXT,
    address       TEXT,
    contact_phone TEXT,
    contact_email TEXT,
    category      TEXT,
    attributes    TEXT,
    photo         BLOB,
    photo_mime    TEXT
);
`

// EnsureSchema creates all tables if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
