package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
    id         TEXT PRIMARY KEY,
    pack       TEXT NOT NULL,
    level      INTEGER NOT NULL,
    steps      INTEGER NOT NULL,
    session_id TEXT NOT NULL DEFAULT '',
    solved_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_pack_level ON results (pack, level, steps);
`

// SQLiteStore keeps results in a SQLite database file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at path and applies the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// a single writer keeps busy errors away
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Info().Str("path", path).Msg("records database ready")
	return &SQLiteStore{db: db}, nil
}

// Record inserts a result
func (s *SQLiteStore) Record(ctx context.Context, r Result) (bool, error) {
	if err := r.validate(); err != nil {
		return false, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SolvedAt.IsZero() {
		r.SolvedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	var better int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM results WHERE pack=? AND level=? AND steps<=?`,
		r.Pack, r.Level, r.Steps,
	).Scan(&better); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("query best: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO results (id, pack, level, steps, session_id, solved_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Pack, r.Level, r.Steps, r.SessionID, r.SolvedAt,
	); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("insert result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return better == 0, nil
}

// Best returns the fewest-steps result of a level
func (s *SQLiteStore) Best(ctx context.Context, pack string, level int) (*Result, error) {
	var r Result
	err := s.db.QueryRowContext(ctx, `
        SELECT id, pack, level, steps, session_id, solved_at
        FROM results
        WHERE pack=? AND level=?
        ORDER BY steps ASC, solved_at ASC
        LIMIT 1`, pack, level,
	).Scan(&r.ID, &r.Pack, &r.Level, &r.Steps, &r.SessionID, &r.SolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns every result of a pack
func (s *SQLiteStore) List(ctx context.Context, pack string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, pack, level, steps, session_id, solved_at
        FROM results
        WHERE pack=?
        ORDER BY level ASC, steps ASC, solved_at ASC`, pack,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Pack, &r.Level, &r.Steps, &r.SessionID, &r.SolvedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
