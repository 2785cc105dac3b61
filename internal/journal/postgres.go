package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS save_edits (
	id          UUID PRIMARY KEY,
	at          TIMESTAMPTZ NOT NULL,
	file        TEXT NOT NULL,
	class       TEXT NOT NULL,
	unit        TEXT NOT NULL,
	field       TEXT NOT NULL,
	old_value   TEXT NOT NULL,
	new_value   TEXT NOT NULL,
	before_hash TEXT NOT NULL,
	after_hash  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS save_edits_file_at ON save_edits(file, at DESC);
`

// Postgres is a Journal shared through a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and ensures the schema.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL journal")
	return &Postgres{pool: pool}, nil
}

func (j *Postgres) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`INSERT INTO save_edits
			(id, at, file, class, unit, field, old_value, new_value, before_hash, after_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.ID, e.At, e.File, e.Class, e.Unit, e.Field, e.Old, e.New, e.BeforeHash, e.AfterHash)
	}

	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert journal entries: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}
	return nil
}

func (j *Postgres) List(ctx context.Context, file string, limit int) ([]Entry, error) {
	query := `SELECT id::text, at, file, class, unit, field, old_value, new_value, before_hash, after_hash
		FROM save_edits WHERE $1 = '' OR file = $1 ORDER BY at DESC`
	args := []any{file}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := j.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.At, &e.File, &e.Class, &e.Unit, &e.Field,
			&e.Old, &e.New, &e.BeforeHash, &e.AfterHash)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return entries, nil
}

func (j *Postgres) Close() error {
	j.pool.Close()
	return nil
}
