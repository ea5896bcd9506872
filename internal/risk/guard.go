package risk

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrBelowMinimum = errors.New("order below minimum notional")
	ErrAboveMaximum = errors.New("order above maximum notional")
	ErrCapExceeded  = errors.New("per-minute notional cap exceeded")
)

const windowLength = 60 * time.Second

// Guard serializes every risk decision and every inventory mutation behind
// one mutex: a stale read of the ledger could approve a trade that
// double-spends inventory, so there are no lock-free reads here.
type Guard struct {
	log *zap.Logger
	now func() time.Time

	mu             sync.Mutex
	cfg            Config
	windowStart    time.Time
	windowNotional float64
	inventory      map[string]Balance
}

func NewGuard(cfg Config, log *zap.Logger) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Guard{
		log:       log,
		now:       time.Now,
		cfg:       cfg,
		inventory: make(map[string]Balance),
	}, nil
}

func (g *Guard) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// UpdateConfig validates the patched config and swaps it in whole. The
// previous config stays active when validation fails.
func (g *Guard) UpdateConfig(patch Patch) (Config, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.cfg.apply(patch)
	if err := next.Validate(); err != nil {
		return g.cfg, err
	}
	g.cfg = next
	g.log.Info("risk config updated",
		zap.Float64("max_notional", next.MaxNotionalPerTrade),
		zap.Float64("min_notional", next.MinNotionalPerTrade),
		zap.Float64("per_minute_cap", next.PerMinuteNotionalCap),
		zap.Bool("dry_run", next.DryRun),
	)
	return next, nil
}

// Propose checks one trade attempt against per-trade bounds and the rolling
// 60-second notional window. Approval reserves the notional in the window.
func (g *Guard) Propose(orderSizeQuote float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if orderSizeQuote < g.cfg.MinNotionalPerTrade {
		return fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinimum, orderSizeQuote, g.cfg.MinNotionalPerTrade)
	}
	if orderSizeQuote > g.cfg.MaxNotionalPerTrade {
		return fmt.Errorf("%w: %.2f > %.2f", ErrAboveMaximum, orderSizeQuote, g.cfg.MaxNotionalPerTrade)
	}
	now := g.now()
	if now.Sub(g.windowStart) > windowLength {
		g.windowStart = now
		g.windowNotional = 0
	}
	if g.windowNotional+orderSizeQuote > g.cfg.PerMinuteNotionalCap {
		return fmt.Errorf("%w: %.2f + %.2f > %.2f", ErrCapExceeded, g.windowNotional, orderSizeQuote, g.cfg.PerMinuteNotionalCap)
	}
	g.windowNotional += orderSizeQuote
	return nil
}

// SetClock overrides the window clock, for tests.
func (g *Guard) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}
