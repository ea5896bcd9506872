package state

import (
	"context"

	"px-oracle/internal/risk"

	"github.com/vmihailenco/msgpack/v5"
)

const riskConfigKey = "risk_config"

type riskConfigBlob struct {
	MaxNotionalPerTrade  float64 `msgpack:"max_notional_per_trade"`
	MinNotionalPerTrade  float64 `msgpack:"min_notional_per_trade"`
	PerMinuteNotionalCap float64 `msgpack:"per_minute_notional_cap"`
	DryRun               bool    `msgpack:"dry_run"`
}

// SaveRiskConfig checkpoints the active risk config so an administrative
// override outlives a restart.
func SaveRiskConfig(ctx context.Context, store Store, cfg risk.Config) error {
	if store == nil {
		return nil
	}
	blob, err := msgpack.Marshal(riskConfigBlob{
		MaxNotionalPerTrade:  cfg.MaxNotionalPerTrade,
		MinNotionalPerTrade:  cfg.MinNotionalPerTrade,
		PerMinuteNotionalCap: cfg.PerMinuteNotionalCap,
		DryRun:               cfg.DryRun,
	})
	if err != nil {
		return err
	}
	return store.Set(ctx, riskConfigKey, blob)
}

// LoadRiskConfig restores the last checkpointed risk config. The second
// return is false when no checkpoint exists.
func LoadRiskConfig(ctx context.Context, store Store) (risk.Config, bool, error) {
	if store == nil {
		return risk.Config{}, false, nil
	}
	raw, ok, err := store.Get(ctx, riskConfigKey)
	if err != nil || !ok {
		return risk.Config{}, false, err
	}
	var blob riskConfigBlob
	if err := msgpack.Unmarshal(raw, &blob); err != nil {
		return risk.Config{}, false, err
	}
	return risk.Config{
		MaxNotionalPerTrade:  blob.MaxNotionalPerTrade,
		MinNotionalPerTrade:  blob.MinNotionalPerTrade,
		PerMinuteNotionalCap: blob.PerMinuteNotionalCap,
		DryRun:               blob.DryRun,
	}, true, nil
}
