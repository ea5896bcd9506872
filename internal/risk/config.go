package risk

import "errors"

// Config bounds what the guard will approve. It is replaced wholesale by
// UpdateConfig; fields are never mutated in place.
type Config struct {
	MaxNotionalPerTrade  float64
	MinNotionalPerTrade  float64
	PerMinuteNotionalCap float64
	DryRun               bool
}

// Patch carries an administrative partial update; nil fields keep their
// current value. The patched whole is validated before it replaces the
// active config, so a malformed update is rejected without partial effect.
type Patch struct {
	MaxNotionalPerTrade  *float64
	MinNotionalPerTrade  *float64
	PerMinuteNotionalCap *float64
	DryRun               *bool
}

func (c Config) Validate() error {
	if c.MaxNotionalPerTrade <= 0 {
		return errors.New("max notional per trade must be > 0")
	}
	if c.MinNotionalPerTrade < 0 {
		return errors.New("min notional per trade must be >= 0")
	}
	if c.MinNotionalPerTrade > c.MaxNotionalPerTrade {
		return errors.New("min notional per trade exceeds max")
	}
	if c.PerMinuteNotionalCap < c.MaxNotionalPerTrade {
		return errors.New("per-minute notional cap below max notional per trade")
	}
	return nil
}

func (c Config) apply(p Patch) Config {
	next := c
	if p.MaxNotionalPerTrade != nil {
		next.MaxNotionalPerTrade = *p.MaxNotionalPerTrade
	}
	if p.MinNotionalPerTrade != nil {
		next.MinNotionalPerTrade = *p.MinNotionalPerTrade
	}
	if p.PerMinuteNotionalCap != nil {
		next.PerMinuteNotionalCap = *p.PerMinuteNotionalCap
	}
	if p.DryRun != nil {
		next.DryRun = *p.DryRun
	}
	return next
}
