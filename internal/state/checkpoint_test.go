package state

import (
	"context"
	"path/filepath"
	"testing"

	"px-oracle/internal/risk"
	"px-oracle/internal/state/sqlite"
)

func TestRiskConfigCheckpointRoundTrip(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := LoadRiskConfig(ctx, store); err != nil || ok {
		t.Fatalf("expected no checkpoint, ok=%v err=%v", ok, err)
	}

	cfg := risk.Config{
		MaxNotionalPerTrade:  7_500,
		MinNotionalPerTrade:  250,
		PerMinuteNotionalCap: 30_000,
		DryRun:               true,
	}
	if err := SaveRiskConfig(ctx, store, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	restored, ok, err := LoadRiskConfig(ctx, store)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if restored != cfg {
		t.Fatalf("restored %+v, want %+v", restored, cfg)
	}
}

func TestCheckpointNilStoreIsNoop(t *testing.T) {
	ctx := context.Background()
	if err := SaveRiskConfig(ctx, nil, risk.Config{}); err != nil {
		t.Fatalf("save with nil store: %v", err)
	}
	if _, ok, err := LoadRiskConfig(ctx, nil); err != nil || ok {
		t.Fatalf("load with nil store: ok=%v err=%v", ok, err)
	}
}
