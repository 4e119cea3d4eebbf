package metrics

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	bufferSize    = 10_000
	flushInterval = 100 * time.Millisecond
	flushBatch    = 1000
	drainTimeout  = 2 * time.Second
)

// ClickHouseSink writes metric emissions to ClickHouse asynchronously.
// The Emit methods are non-blocking — emissions are buffered and
// batch-inserted in a background goroutine.
type ClickHouseSink struct {
	conn      driver.Conn
	sessionID string
	buffer    chan *Emission
	done      chan struct{}
	flushed   chan struct{} // closed by flushLoop when it returns
	logger    *zap.Logger
}

// NewClickHouseSink creates a ClickHouseSink and starts the background flush
// loop. Every emission from this process carries the same session id.
func NewClickHouseSink(dsn string, logger *zap.Logger) (*ClickHouseSink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	// ParseDSN sets TLS when ?secure=true is in the DSN; enforce it here so
	// cloud deployments on TLS ports work without the query param.
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	s := &ClickHouseSink{
		conn:      conn,
		sessionID: uuid.New().String(),
		buffer:    make(chan *Emission, bufferSize),
		done:      make(chan struct{}),
		flushed:   make(chan struct{}),
		logger:    logger,
	}

	go s.flushLoop()
	return s, nil
}

func (s *ClickHouseSink) EmitLinear(name string, value, exclusiveMax int) {
	s.enqueue(&Emission{
		Metric:       name,
		Kind:         KindLinear,
		Value:        FoldLinear(value, exclusiveMax),
		ExclusiveMax: exclusiveMax,
		Suppressed:   value == SuppressedValue,
	})
}

func (s *ClickHouseSink) EmitEnum(name string, value, domainSize int) {
	s.enqueue(&Emission{
		Metric:       name,
		Kind:         KindEnum,
		Value:        value,
		ExclusiveMax: domainSize,
	})
}

func (s *ClickHouseSink) EmitBoolean(name string, value bool) {
	v := 0
	if value {
		v = 1
	}
	s.enqueue(&Emission{
		Metric:       name,
		Kind:         KindBoolean,
		Value:        v,
		ExclusiveMax: 2,
	})
}

// enqueue queues an emission for async insertion.
// Non-blocking: drops the emission if the buffer is full.
func (s *ClickHouseSink) enqueue(e *Emission) {
	e.ID = uuid.New().String()
	e.SessionID = s.sessionID
	e.RecordedAt = time.Now().UTC()

	select {
	case s.buffer <- e:
	default:
		s.logger.Warn("clickhouse buffer full, dropping emission",
			zap.String("metric", e.Metric),
		)
	}
}

// Close signals the flush loop to drain remaining emissions, waits for it to
// finish (up to drainTimeout), and then returns. Safe to call once.
func (s *ClickHouseSink) Close() {
	close(s.done)
	<-s.flushed
}

func (s *ClickHouseSink) flushLoop() {
	defer close(s.flushed)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*Emission, 0, flushBatch)

	for {
		select {
		case e := <-s.buffer:
			batch = append(batch, e)
			if len(batch) >= flushBatch {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-s.done:
			// Drain remaining emissions from the buffer
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
		drainLoop:
			for {
				select {
				case e := <-s.buffer:
					batch = append(batch, e)
				case <-drainCtx.Done():
					break drainLoop
				default:
					break drainLoop
				}
			}
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

func (s *ClickHouseSink) flush(emissions []*Emission) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO metric_emissions (
			id, session_id, recorded_at, metric, kind,
			value, exclusive_max, suppressed
		)
	`)
	if err != nil {
		s.logger.Error("clickhouse prepare batch failed", zap.Error(err))
		return
	}

	for _, e := range emissions {
		var suppressedUint8 uint8
		if e.Suppressed {
			suppressedUint8 = 1
		}

		if err := batch.Append(
			e.ID,
			e.SessionID,
			e.RecordedAt,
			e.Metric,
			e.Kind,
			int32(e.Value),
			int32(e.ExclusiveMax),
			suppressedUint8,
		); err != nil {
			s.logger.Error("clickhouse append emission failed",
				zap.String("metric", e.Metric),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		s.logger.Error("clickhouse batch send failed",
			zap.Int("batch_size", len(emissions)),
			zap.Error(err),
		)
	}
}
