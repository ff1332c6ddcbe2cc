package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an in-memory export database that is closed when the
// test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenWithSchema(Memory)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
