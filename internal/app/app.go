package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"px-oracle/internal/config"
	"px-oracle/internal/engine"
	"px-oracle/internal/feed"
	"px-oracle/internal/history"
	"px-oracle/internal/market"
	"px-oracle/internal/metrics"
	"px-oracle/internal/oracle"
	"px-oracle/internal/publish"
	"px-oracle/internal/risk"
	"px-oracle/internal/router"
	"px-oracle/internal/state"
	"px-oracle/internal/state/sqlite"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// publishedSignalSpreadPct is the minimum cross-venue spread a signal must
// clear before it is fanned out to subscribers.
const publishedSignalSpreadPct = 0.1

// App owns construction and lifecycle: venue feeds into the snapshot store,
// the oracle refresh loop over it, and the engine facade on top. Everything
// optional (sqlite, history, redis, /metrics) stays disabled unless the
// config asks for it.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics

	store     state.Store
	snapshots *market.SnapshotStore
	oracle    *oracle.Oracle
	driver    *feed.Driver
	polls     []feed.PollAdapter
	streams   []feed.StreamAdapter
	engine    *engine.Engine
	history   history.Sink
	historyW  *history.Writer
	publisher *publish.Publisher

	metricsHandler http.Handler
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, metrics: metrics.NewNoop()}

	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheus()
		a.metrics = prom.Metrics
		a.metricsHandler = prom.Handler()
	}

	if path := cfg.State.SQLitePath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		store, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	dryRun := true
	if cfg.Risk.DryRun != nil {
		dryRun = *cfg.Risk.DryRun
	}
	guard, err := risk.NewGuard(risk.Config{
		MaxNotionalPerTrade:  cfg.Risk.MaxNotionalPerTrade,
		MinNotionalPerTrade:  cfg.Risk.MinNotionalPerTrade,
		PerMinuteNotionalCap: cfg.Risk.PerMinuteNotionalCap,
		DryRun:               dryRun,
	}, log)
	if err != nil {
		return nil, err
	}

	a.snapshots = market.NewSnapshotStore()
	a.oracle = oracle.New(a.snapshots, cfg.Oracle.RefreshInterval, cfg.Oracle.StaleAfter, log, a.metrics)
	a.driver = feed.NewDriver(a.snapshots, cfg.Feeds.PollInterval, cfg.Feeds.ReconnectDelay, cfg.Feeds.RequestTimeout, log, a.metrics)
	a.polls = []feed.PollAdapter{
		feed.NewBybit(cfg.Feeds.BybitURL, cfg.Feeds.RequestTimeout, cfg.Feeds.QuoteAssets, log),
		feed.NewOKX(cfg.Feeds.OKXURL, cfg.Feeds.RequestTimeout, cfg.Feeds.QuoteAssets, log),
	}
	a.streams = []feed.StreamAdapter{
		feed.NewBinance(cfg.Feeds.BinanceWSURL, cfg.Feeds.ReconnectDelay, cfg.Feeds.QuoteAssets, log),
	}

	rt := router.New(guard, log, a.metrics)
	a.engine = engine.New(a.oracle, guard, rt, a.store, log, a.metrics)

	writer, err := history.New(cfg.History, log, a.metrics)
	if err != nil {
		return nil, err
	}
	a.historyW = writer
	a.history = history.NopSink{}
	if writer != nil {
		a.history = writer
	}

	publisher, err := publish.New(cfg.Publish, log, a.metrics)
	if err != nil {
		return nil, err
	}
	a.publisher = publisher

	return a, nil
}

// Engine exposes the facade for embedding callers (admin surfaces, tests).
func (a *App) Engine() *engine.Engine {
	return a.engine
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.engine.RestoreRiskConfig(ctx); err != nil {
		a.log.Warn("risk config restore failed", zap.Error(err))
	}

	a.historyW.Start(ctx)
	a.oracle.OnRefresh(func(generation []oracle.CompositePrice) {
		a.history.Enqueue(generation)
		a.publisher.Publish(ctx, generation)
		a.publisher.PublishSignals(ctx, oracle.DetectArbitrage(generation, publishedSignalSpreadPct))
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.driver.Supervise(ctx, a.polls, a.streams) })
	g.Go(func() error { return a.oracle.Run(ctx) })
	if a.metricsHandler != nil {
		g.Go(func() error { return a.serveMetrics(ctx) })
	}

	a.log.Info("oracle engine started",
		zap.Int("poll_venues", len(a.polls)),
		zap.Int("stream_venues", len(a.streams)),
		zap.Duration("refresh_interval", a.cfg.Oracle.RefreshInterval),
	)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metricsHandler)
	srv := &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.log.Info("metrics listener started", zap.String("addr", a.cfg.Metrics.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) close() {
	if err := a.historyW.Close(); err != nil {
		a.log.Warn("history close failed", zap.Error(err))
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("state store close failed", zap.Error(err))
		}
	}
}
