package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS convmon_prefs (
	key   TEXT PRIMARY KEY,
	value BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS convmon_panel_trigger_daily (
	day   BIGINT PRIMARY KEY,
	count BIGINT NOT NULL CHECK (count >= 0)
);
`

// PostgresStore is the fleet/server-side Store backend, using the pgx driver
// through database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore backed by the given connection
// pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("migrate prefs schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetBool(ctx context.Context, key string) (bool, error) {
	var value bool
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM convmon_prefs WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get pref %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) SetBool(ctx context.Context, key string, value bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO convmon_prefs (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) AddTriggerDelta(ctx context.Context, delta uint64, at time.Time) error {
	day := dayStart(at)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO convmon_panel_trigger_daily (day, count) VALUES ($1, $2)
		 ON CONFLICT (day) DO UPDATE SET count = convmon_panel_trigger_daily.count + EXCLUDED.count`,
		day, int64(delta),
	)
	if err != nil {
		return fmt.Errorf("add trigger delta: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM convmon_panel_trigger_daily WHERE day < $1`, windowCutoff(at),
	)
	if err != nil {
		return fmt.Errorf("prune trigger counts: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) TriggerWeeklySum(ctx context.Context, now time.Time) (uint64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0) FROM convmon_panel_trigger_daily
		 WHERE day >= $1 AND day <= $2`,
		windowCutoff(now), dayStart(now),
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("trigger weekly sum: %w", err)
	}
	return uint64(sum), nil
}
