package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// SQLite implements Store with a SQLite database.
type SQLite struct {
	db *sql.DB
}

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const createUsageTable = `
CREATE TABLE IF NOT EXISTS usage_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	model TEXT NOT NULL,
	cost_usd REAL NOT NULL,
	cache_hit INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_log(created_at);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_log(model);
`

// NewSQLite opens (or creates) the database at path and runs auto-migration.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	if _, err := db.Exec(createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate kv table: %w", err)
	}
	if _, err := db.Exec(createUsageTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage_log table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get returns the value for a key, or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set upserts a value with the current timestamp.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// CountPrefix returns the number of keys with the given prefix.
func (s *SQLite) CountPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv WHERE key LIKE ? || '%'`, prefix,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count prefix %q: %w", prefix, err)
	}
	return count, nil
}

// DeletePrefix removes all keys with the given prefix.
func (s *SQLite) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE ? || '%'`, prefix); err != nil {
		return fmt.Errorf("delete prefix %q: %w", prefix, err)
	}
	return nil
}

// AppendUsage appends one row to the usage log.
func (s *SQLite) AppendUsage(ctx context.Context, entry models.UsageLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_log (request_id, model, cost_usd, cache_hit, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.RequestID, entry.Model, entry.CostUsd, entry.CacheHit, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

// UsageSince returns usage entries recorded at or after since, oldest first.
func (s *SQLite) UsageSince(ctx context.Context, since time.Time) ([]models.UsageLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, model, cost_usd, cache_hit, created_at
		 FROM usage_log WHERE created_at >= ? ORDER BY created_at ASC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("usage since: %w", err)
	}
	defer rows.Close()
	return scanUsage(rows)
}

// RecentUsage returns the newest usage entries, newest first.
func (s *SQLite) RecentUsage(ctx context.Context, limit int) ([]models.UsageLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, model, cost_usd, cache_hit, created_at
		 FROM usage_log ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent usage: %w", err)
	}
	defer rows.Close()
	return scanUsage(rows)
}

// UsageSummary aggregates the usage log per model.
func (s *SQLite) UsageSummary(ctx context.Context) ([]models.UsageSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, COUNT(*), SUM(cache_hit), SUM(cost_usd)
		 FROM usage_log GROUP BY model ORDER BY model`,
	)
	if err != nil {
		return nil, fmt.Errorf("usage summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.UsageSummary
	for rows.Next() {
		var sum models.UsageSummary
		if err := rows.Scan(&sum.Model, &sum.RequestCount, &sum.CacheHits, &sum.TotalUsd); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanUsage(rows *sql.Rows) ([]models.UsageLogEntry, error) {
	var entries []models.UsageLogEntry
	for rows.Next() {
		var e models.UsageLogEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Model, &e.CostUsd, &e.CacheHit, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
