package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"px-oracle/internal/config"
	"px-oracle/internal/metrics"
	"px-oracle/internal/oracle"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Sink receives each composite generation for out-of-band persistence. The
// engine itself owns no durable format; persistence is an external concern
// behind this interface.
type Sink interface {
	Enqueue(generation []oracle.CompositePrice)
}

// NopSink discards everything; used when history is disabled.
type NopSink struct{}

func (NopSink) Enqueue([]oracle.CompositePrice) {}

// Writer streams composite prices into Postgres/Timescale through a bounded
// queue. Inserts never block the refresh cycle: when the queue is full the
// generation is dropped and counted.
type Writer struct {
	db      *sql.DB
	log     *zap.Logger
	metrics *metrics.Metrics
	schema  string
	queue   chan []oracle.CompositePrice
	started atomic.Bool
	drops   atomic.Uint64
}

func New(cfg config.HistoryConfig, log *zap.Logger, m *metrics.Metrics) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("history dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	w := &Writer{
		db:      db,
		log:     log,
		metrics: m,
		schema:  schema,
		queue:   make(chan []oracle.CompositePrice, queueSize),
	}
	if err := w.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) Enqueue(generation []oracle.CompositePrice) {
	if w == nil || len(generation) == 0 {
		return
	}
	select {
	case w.queue <- generation:
	default:
		w.metrics.HistoryDrops.Inc()
		if w.drops.Add(1) == 1 && w.log != nil {
			w.log.Warn("composite history queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case generation := <-w.queue:
			for _, composite := range generation {
				w.writeComposite(ctx, composite)
			}
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("history db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		symbol TEXT NOT NULL,
		weighted_price DOUBLE PRECISION NOT NULL,
		simple_average DOUBLE PRECISION NOT NULL,
		median DOUBLE PRECISION NOT NULL,
		min_price DOUBLE PRECISION NOT NULL,
		max_price DOUBLE PRECISION NOT NULL,
		price_variance DOUBLE PRECISION NOT NULL,
		total_volume DOUBLE PRECISION NOT NULL,
		venue_count INTEGER NOT NULL,
		momentum DOUBLE PRECISION,
		volatility DOUBLE PRECISION,
		confidence DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ts, symbol)
	)`, w.table("composite_prices"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("composite_prices"))); err != nil && w.log != nil {
		w.log.Warn("composite_prices hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) writeComposite(ctx context.Context, c oracle.CompositePrice) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, symbol, weighted_price, simple_average, median, min_price, max_price,
		price_variance, total_volume, venue_count, momentum, volatility, confidence
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
	)
	ON CONFLICT (ts, symbol) DO UPDATE SET
		weighted_price = EXCLUDED.weighted_price,
		simple_average = EXCLUDED.simple_average,
		median = EXCLUDED.median,
		min_price = EXCLUDED.min_price,
		max_price = EXCLUDED.max_price,
		price_variance = EXCLUDED.price_variance,
		total_volume = EXCLUDED.total_volume,
		venue_count = EXCLUDED.venue_count,
		momentum = EXCLUDED.momentum,
		volatility = EXCLUDED.volatility,
		confidence = EXCLUDED.confidence`, w.table("composite_prices"))
	var momentum, volatility any
	if c.MomentumScore != nil {
		momentum = *c.MomentumScore
	}
	if c.VolatilityScore != nil {
		volatility = *c.VolatilityScore
	}
	if _, err := w.db.ExecContext(ctx, query,
		c.Timestamp,
		c.Symbol,
		c.WeightedPrice,
		c.SimpleAverage,
		c.Median,
		c.Min,
		c.Max,
		c.PriceVariance,
		c.TotalVolume,
		c.VenueCount,
		momentum,
		volatility,
		c.Confidence(),
	); err != nil && w.log != nil {
		w.log.Warn("composite insert failed", zap.String("symbol", c.Symbol), zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
