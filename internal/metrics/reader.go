package metrics

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse metric_emissions table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// EmissionRow is a single row from the metric_emissions table.
type EmissionRow struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	RecordedAt   time.Time `json:"recorded_at"`
	Metric       string    `json:"metric"`
	Kind         string    `json:"kind"`
	Value        int32     `json:"value"`
	ExclusiveMax int32     `json:"exclusive_max"`
	Suppressed   uint8     `json:"suppressed"`
}

// RecentEmissions returns the most recent emissions, optionally filtered by
// metric name. limit is clamped to 1000.
func (r *Reader) RecentEmissions(ctx context.Context, metric string, limit int) ([]EmissionRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	conditions := []string{"1 = 1"}
	args := []any{}

	if metric != "" {
		conditions = append(conditions, "metric = @metric")
		args = append(args, clickhouse.Named("metric", metric))
	}

	query := fmt.Sprintf(
		"SELECT id, session_id, recorded_at, metric, kind, value, exclusive_max, suppressed "+
			"FROM metric_emissions WHERE %s "+
			"ORDER BY recorded_at DESC "+
			"LIMIT @limit",
		strings.Join(conditions, " AND "),
	)
	args = append(args, clickhouse.Named("limit", uint32(limit)))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("RecentEmissions query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var emissions []EmissionRow
	for rows.Next() {
		var e EmissionRow
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.RecordedAt, &e.Metric, &e.Kind,
			&e.Value, &e.ExclusiveMax, &e.Suppressed,
		); err != nil {
			return nil, fmt.Errorf("RecentEmissions scan: %w", err)
		}
		emissions = append(emissions, e)
	}

	return emissions, rows.Err()
}
