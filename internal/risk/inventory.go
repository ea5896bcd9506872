package risk

import "go.uber.org/zap"

// Balance is one venue's base/quote holdings in the in-memory ledger.
type Balance struct {
	Base  float64
	Quote float64
}

// RecordFill applies one dry-run fill to the ledger: the buy venue spends
// quote and gains base, the sell venue gains quote and spends base. This is
// the only mutator of inventory and runs as one atomic step relative to any
// concurrent reader. Outside dry-run the ledger is left untouched, since a
// real submission would reconcile balances from the venue instead.
func (g *Guard) RecordFill(symbol, buyVenue, sellVenue string, orderSizeQuote, baseQty float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.cfg.DryRun {
		return
	}
	buy := g.inventory[buyVenue]
	buy.Quote -= orderSizeQuote
	buy.Base += baseQty
	g.inventory[buyVenue] = buy

	sell := g.inventory[sellVenue]
	sell.Quote += orderSizeQuote
	sell.Base -= baseQty
	g.inventory[sellVenue] = sell

	g.log.Debug("fill recorded",
		zap.String("symbol", symbol),
		zap.String("buy_venue", buyVenue),
		zap.String("sell_venue", sellVenue),
		zap.Float64("notional", orderSizeQuote),
		zap.Float64("base_qty", baseQty),
	)
}

// Inventory returns a copy of the per-venue balances.
func (g *Guard) Inventory() map[string]Balance {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]Balance, len(g.inventory))
	for venue, balance := range g.inventory {
		out[venue] = balance
	}
	return out
}
