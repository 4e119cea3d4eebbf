package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL CHECK (value IN (0, 1))
);

CREATE TABLE IF NOT EXISTS panel_trigger_daily (
	day   INTEGER PRIMARY KEY,
	count INTEGER NOT NULL CHECK (count >= 0)
);
`

// SQLiteStore is the per-install local Store backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite preference database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate prefs db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetBool(ctx context.Context, key string) (bool, error) {
	var value int
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM prefs WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get pref %s: %w", key, err)
	}
	return value != 0, nil
}

func (s *SQLiteStore) SetBool(ctx context.Context, key string, value bool) error {
	v := 0
	if value {
		v = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, v,
	)
	if err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) AddTriggerDelta(ctx context.Context, delta uint64, at time.Time) error {
	day := dayStart(at)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO panel_trigger_daily (day, count) VALUES (?, ?)
		 ON CONFLICT(day) DO UPDATE SET count = count + excluded.count`,
		day, int64(delta),
	)
	if err != nil {
		return fmt.Errorf("add trigger delta: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM panel_trigger_daily WHERE day < ?`, windowCutoff(at),
	)
	if err != nil {
		return fmt.Errorf("prune trigger counts: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) TriggerWeeklySum(ctx context.Context, now time.Time) (uint64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0) FROM panel_trigger_daily
		 WHERE day >= ? AND day <= ?`,
		windowCutoff(now), dayStart(now),
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("trigger weekly sum: %w", err)
	}
	return uint64(sum), nil
}
