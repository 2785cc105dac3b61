package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS edits (
	id          TEXT PRIMARY KEY,
	at          INTEGER NOT NULL,
	file        TEXT NOT NULL,
	class       TEXT NOT NULL,
	unit        TEXT NOT NULL,
	field       TEXT NOT NULL,
	old_value   TEXT NOT NULL,
	new_value   TEXT NOT NULL,
	before_hash TEXT NOT NULL,
	after_hash  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS edits_file_at ON edits(file, at);
`

// SQLite is a Journal in a local sqlite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the journal at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("journal: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO edits
		(id, at, file, class, unit, field, old_value, new_value, before_hash, after_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("journal: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx, e.ID, e.At.UnixNano(), e.File, e.Class, e.Unit, e.Field,
			e.Old, e.New, e.BeforeHash, e.AfterHash)
		if err != nil {
			return fmt.Errorf("journal: insert %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	return nil
}

func (j *SQLite) List(ctx context.Context, file string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, `SELECT id, at, file, class, unit, field, old_value, new_value, before_hash, after_hash
		FROM edits WHERE ? = '' OR file = ?
		ORDER BY at DESC, rowid DESC LIMIT ?`, file, file, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.ID, &at, &e.File, &e.Class, &e.Unit, &e.Field,
			&e.Old, &e.New, &e.BeforeHash, &e.AfterHash); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.At = time.Unix(0, at).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: rows: %w", err)
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
