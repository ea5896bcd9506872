package risk

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testConfig() Config {
	return Config{
		MaxNotionalPerTrade:  10_000,
		MinNotionalPerTrade:  100,
		PerMinuteNotionalCap: 50_000,
		DryRun:               true,
	}
}

func newTestGuard(t *testing.T, cfg Config) *Guard {
	t.Helper()
	g, err := NewGuard(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	return g
}

func TestProposeNotionalBounds(t *testing.T) {
	g := newTestGuard(t, testConfig())
	if err := g.Propose(50); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected below-minimum, got %v", err)
	}
	if err := g.Propose(20_000); !errors.Is(err, ErrAboveMaximum) {
		t.Fatalf("expected above-maximum, got %v", err)
	}
	if err := g.Propose(5_000); err != nil {
		t.Fatalf("expected approval, got %v", err)
	}
}

func TestProposeRollingWindow(t *testing.T) {
	cfg := testConfig()
	cfg.PerMinuteNotionalCap = 5_000
	cfg.MaxNotionalPerTrade = 5_000
	g := newTestGuard(t, cfg)

	current := time.Now()
	g.SetClock(func() time.Time { return current })

	if err := g.Propose(2_000); err != nil {
		t.Fatalf("first proposal: %v", err)
	}
	if err := g.Propose(2_000); err != nil {
		t.Fatalf("second proposal: %v", err)
	}
	if err := g.Propose(2_000); !errors.Is(err, ErrCapExceeded) {
		t.Fatalf("expected cap exceeded, got %v", err)
	}

	// After the window lapses the full cap is available again.
	current = current.Add(61 * time.Second)
	if err := g.Propose(5_000); err != nil {
		t.Fatalf("post-window proposal: %v", err)
	}
}

func TestRecordFillMovesBalances(t *testing.T) {
	g := newTestGuard(t, testConfig())
	g.RecordFill("BTCUSDT", "binance", "bybit", 1_000, 0.01)

	inv := g.Inventory()
	buy := inv["binance"]
	if buy.Quote != -1_000 || buy.Base != 0.01 {
		t.Fatalf("buy venue balance %+v", buy)
	}
	sell := inv["bybit"]
	if sell.Quote != 1_000 || sell.Base != -0.01 {
		t.Fatalf("sell venue balance %+v", sell)
	}
}

func TestRecordFillNoopOutsideDryRun(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = false
	g := newTestGuard(t, cfg)
	g.RecordFill("BTCUSDT", "binance", "bybit", 1_000, 0.01)
	if inv := g.Inventory(); len(inv) != 0 {
		t.Fatalf("expected untouched ledger, got %v", inv)
	}
}

func TestInventoryReturnsCopy(t *testing.T) {
	g := newTestGuard(t, testConfig())
	g.RecordFill("BTCUSDT", "binance", "bybit", 1_000, 0.01)
	inv := g.Inventory()
	inv["binance"] = Balance{}
	if g.Inventory()["binance"].Base != 0.01 {
		t.Fatalf("ledger mutated through copy")
	}
}

func TestUpdateConfigReplacesWhole(t *testing.T) {
	g := newTestGuard(t, testConfig())
	maxNotional := 20_000.0
	minuteCap := 100_000.0
	next, err := g.UpdateConfig(Patch{MaxNotionalPerTrade: &maxNotional, PerMinuteNotionalCap: &minuteCap})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if next.MaxNotionalPerTrade != 20_000 || next.MinNotionalPerTrade != 100 {
		t.Fatalf("unexpected config %+v", next)
	}
	if g.Config() != next {
		t.Fatalf("active config not replaced")
	}
}

func TestUpdateConfigRejectsMalformedWithoutPartialApply(t *testing.T) {
	g := newTestGuard(t, testConfig())
	before := g.Config()
	badMin := 50_000.0
	if _, err := g.UpdateConfig(Patch{MinNotionalPerTrade: &badMin}); err == nil {
		t.Fatalf("expected validation error")
	}
	if g.Config() != before {
		t.Fatalf("malformed update was partially applied")
	}
}

func TestNewGuardRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.PerMinuteNotionalCap = 1
	if _, err := NewGuard(cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected constructor validation error")
	}
}
