package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The database only keeps the history
// of catalog exports made from the admin surface; books.json stays the
// source of truth.
const schema = `
CREATE TABLE IF NOT EXISTS exports (
    id         TEXT PRIMARY KEY,
    book_count INTEGER NOT NULL CHECK (book_count >= 0),
    checksum   TEXT NOT NULL,
    content    TEXT NOT NULL,
    note       TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_exports_created_at ON exports(created_at);
`

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{}

// EnsureSchema creates all tables and indexes if they don't already exist
// and applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
