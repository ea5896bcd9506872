package oracle

import (
	"context"
	"sort"
	"sync"
	"time"

	"px-oracle/internal/market"
	"px-oracle/internal/metrics"

	"go.uber.org/zap"
)

// defaultSymbols is returned by Symbols before any venue has delivered a
// tick, so cold-start callers get a non-empty universe.
var defaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT"}

// Oracle consumes the snapshot store on a fixed cadence and owns the
// composite table. The table is swapped wholesale under the write lock, so
// readers never observe a mix of two refresh generations.
type Oracle struct {
	store   *market.SnapshotStore
	log     *zap.Logger
	metrics *metrics.Metrics

	refreshInterval time.Duration
	staleAfter      time.Duration
	now             func() time.Time

	mu         sync.RWMutex
	composites map[string]CompositePrice

	onRefresh []func([]CompositePrice)
}

func New(store *market.SnapshotStore, refreshInterval, staleAfter time.Duration, log *zap.Logger, m *metrics.Metrics) *Oracle {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Oracle{
		store:           store,
		log:             log,
		metrics:         m,
		refreshInterval: refreshInterval,
		staleAfter:      staleAfter,
		now:             time.Now,
		composites:      make(map[string]CompositePrice),
	}
}

// OnRefresh registers a hook invoked after each refresh cycle with the new
// composite generation. Hooks must not block; register before Run.
func (o *Oracle) OnRefresh(fn func([]CompositePrice)) {
	o.onRefresh = append(o.onRefresh, fn)
}

// Run drives the refresh loop until ctx is cancelled. One refresh happens
// immediately so consumers see data as soon as the first ticks land.
func (o *Oracle) Run(ctx context.Context) error {
	o.Refresh()
	ticker := time.NewTicker(o.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.Refresh()
		}
	}
}

// Refresh prunes stale ticks, recomputes every composite from one consistent
// copy of the store, and swaps the table. A panic while computing one symbol
// skips that symbol and leaves the rest of the cycle intact.
func (o *Oracle) Refresh() {
	now := o.now()
	if dropped := o.store.PruneOlderThan(now.Add(-o.staleAfter)); dropped > 0 {
		o.log.Debug("pruned stale ticks", zap.Int("dropped", dropped))
	}
	table := o.store.All()
	next := make(map[string]CompositePrice, len(table))
	for symbol, venues := range table {
		composite, ok := o.computeSafe(symbol, venues)
		if !ok {
			continue
		}
		next[symbol] = composite
	}
	o.mu.Lock()
	o.composites = next
	o.mu.Unlock()
	o.metrics.RefreshCycles.Inc()

	if len(o.onRefresh) > 0 {
		generation := make([]CompositePrice, 0, len(next))
		for _, c := range next {
			generation = append(generation, c)
		}
		sort.Slice(generation, func(i, j int) bool { return generation[i].Symbol < generation[j].Symbol })
		for _, fn := range o.onRefresh {
			fn(generation)
		}
	}
}

func (o *Oracle) computeSafe(symbol string, venues map[string]market.PriceTick) (composite CompositePrice, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("composite computation panicked", zap.String("symbol", symbol), zap.Any("panic", r))
			ok = false
		}
	}()
	return computeComposite(symbol, venues)
}

// Composite returns the current composite for a symbol. The second return is
// false when the symbol has no fresh composite ("not found", not an error).
func (o *Oracle) Composite(symbol string) (CompositePrice, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.composites[symbol]
	return c, ok
}

// Composites returns a copy of the current generation.
func (o *Oracle) Composites() []CompositePrice {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]CompositePrice, 0, len(o.composites))
	for _, c := range o.composites {
		out = append(out, c)
	}
	return out
}

// Symbols lists symbols with a live composite, sorted, falling back to the
// default universe when the table is empty.
func (o *Oracle) Symbols() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.composites) == 0 {
		return append([]string(nil), defaultSymbols...)
	}
	out := make([]string, 0, len(o.composites))
	for symbol := range o.composites {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// SetClock overrides the refresh clock, for tests.
func (o *Oracle) SetClock(now func() time.Time) {
	o.now = now
}
