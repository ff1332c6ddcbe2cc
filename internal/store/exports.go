// Package store persists the admin export history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/rincon/internal/digest"
	"github.com/erazemk/rincon/internal/model"
)

// CreateExport records an exported catalog text.
func CreateExport(ctx context.Context, db *sql.DB, content []byte, bookCount int, note string) (*model.Export, error) {
	e := &model.Export{
		ID:        uuid.NewString(),
		BookCount: bookCount,
		Checksum:  digest.Sum(content),
		Note:      note,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Content:   string(content),
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO exports (id, book_count, checksum, content, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.BookCount, e.Checksum, e.Content, nullString(note), e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating export: %w", err)
	}
	return e, nil
}

// GetExport returns an export with its content by ID.
func GetExport(ctx context.Context, db *sql.DB, id string) (*model.Export, error) {
	e := &model.Export{}
	var note sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, book_count, checksum, content, note, created_at FROM exports WHERE id = ?`, id,
	).Scan(&e.ID, &e.BookCount, &e.Checksum, &e.Content, &note, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting export: %w", err)
	}
	e.Note = note.String
	return e, nil
}

// ListExports returns the most recent exports first, without content.
// A limit of zero or less returns all of them.
func ListExports(ctx context.Context, db *sql.DB, limit int) ([]model.Export, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, book_count, checksum, note, created_at FROM exports
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	var exports []model.Export
	for rows.Next() {
		var e model.Export
		var note sql.NullString
		if err := rows.Scan(&e.ID, &e.BookCount, &e.Checksum, &note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		e.Note = note.String
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// LatestExport returns the most recent export, or nil when there is none.
func LatestExport(ctx context.Context, db *sql.DB) (*model.Export, error) {
	exports, err := ListExports(ctx, db, 1)
	if err != nil || len(exports) == 0 {
		return nil, err
	}
	return GetExport(ctx, db, exports[0].ID)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
