package engine

import (
	"context"

	"px-oracle/internal/arb"
	"px-oracle/internal/metrics"
	"px-oracle/internal/oracle"
	"px-oracle/internal/risk"
	"px-oracle/internal/router"
	"px-oracle/internal/state"

	"go.uber.org/zap"
)

// Engine is the single entry point callers use: reads come from the oracle's
// latest generation, writes go through the risk guard, and admin config
// changes are checkpointed so they survive a restart.
type Engine struct {
	oracle  *oracle.Oracle
	guard   *risk.Guard
	router  *router.Router
	store   state.Store
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(o *oracle.Oracle, guard *risk.Guard, rt *router.Router, store state.Store, log *zap.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Engine{oracle: o, guard: guard, router: rt, store: store, log: log, metrics: m}
}

// RestoreRiskConfig replays the last checkpointed admin override, if any.
// Called once at startup, after the guard is built from config defaults.
func (e *Engine) RestoreRiskConfig(ctx context.Context) error {
	cfg, ok, err := state.LoadRiskConfig(ctx, e.store)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	patch := risk.Patch{
		MaxNotionalPerTrade:  &cfg.MaxNotionalPerTrade,
		MinNotionalPerTrade:  &cfg.MinNotionalPerTrade,
		PerMinuteNotionalCap: &cfg.PerMinuteNotionalCap,
		DryRun:               &cfg.DryRun,
	}
	if _, err := e.guard.UpdateConfig(patch); err != nil {
		return err
	}
	e.log.Info("risk config restored from checkpoint",
		zap.Float64("max_notional", cfg.MaxNotionalPerTrade),
		zap.Float64("minute_cap", cfg.PerMinuteNotionalCap),
		zap.Bool("dry_run", cfg.DryRun))
	return nil
}

func (e *Engine) GetComposite(symbol string) (oracle.CompositePrice, bool) {
	return e.oracle.Composite(symbol)
}

func (e *Engine) ListSymbols() []string {
	return e.oracle.Symbols()
}

func (e *Engine) GetMovements(thresholdPct float64) []oracle.MovementSignal {
	return oracle.DetectMovements(e.oracle.Composites(), thresholdPct)
}

func (e *Engine) GetArbitrageOpportunities(minSpreadPct float64) []oracle.ArbitrageSignal {
	return oracle.DetectArbitrage(e.oracle.Composites(), minSpreadPct)
}

func (e *Engine) EvaluateArbitrage(req arb.EvaluationRequest) (arb.Evaluation, error) {
	e.metrics.Evaluations.Inc()
	return arb.Evaluate(req)
}

func (e *Engine) ProposeAndRecord(symbol, buyVenue, sellVenue string, orderSizeQuote, baseQty float64) router.Result {
	return e.router.ProposeAndRecord(symbol, buyVenue, sellVenue, orderSizeQuote, baseQty)
}

func (e *Engine) GetRiskConfig() risk.Config {
	return e.guard.Config()
}

// UpdateRiskConfig applies an admin override as a whole-struct replacement
// and checkpoints the result. A failed checkpoint does not roll the guard
// back; it is logged and the new limits stay live.
func (e *Engine) UpdateRiskConfig(ctx context.Context, patch risk.Patch) (risk.Config, error) {
	cfg, err := e.guard.UpdateConfig(patch)
	if err != nil {
		return risk.Config{}, err
	}
	if err := state.SaveRiskConfig(ctx, e.store, cfg); err != nil {
		e.log.Warn("risk config checkpoint failed", zap.Error(err))
	}
	return cfg, nil
}

func (e *Engine) GetInventory() map[string]risk.Balance {
	return e.guard.Inventory()
}
