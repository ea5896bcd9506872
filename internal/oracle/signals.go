package oracle

import (
	"math"
	"sort"
)

const (
	maxMovementResults = 50
	maxArbResults      = 20

	// feeCushionPct approximates round-trip taker fees subtracted from the
	// raw cross-venue spread when estimating profit potential.
	feeCushionPct = 0.1
)

type MovementSignal struct {
	Symbol        string
	MomentumPct   float64
	WeightedPrice float64
	VenueCount    int
}

type ArbitrageSignal struct {
	Symbol             string
	SpreadPct          float64
	BuyExchange        string
	BuyPrice           float64
	SellExchange       string
	SellPrice          float64
	ProfitPotentialPct float64
	WeightedPrice      float64
}

// DetectMovements returns symbols whose momentum magnitude is at or above
// thresholdPct, strongest first. Symbols that reported no momentum are
// excluded rather than treated as zero.
func DetectMovements(composites []CompositePrice, thresholdPct float64) []MovementSignal {
	signals := make([]MovementSignal, 0)
	for _, c := range composites {
		if c.MomentumScore == nil {
			continue
		}
		momentum := *c.MomentumScore
		if math.Abs(momentum) < thresholdPct {
			continue
		}
		signals = append(signals, MovementSignal{
			Symbol:        c.Symbol,
			MomentumPct:   momentum,
			WeightedPrice: c.WeightedPrice,
			VenueCount:    c.VenueCount,
		})
	}
	sort.Slice(signals, func(i, j int) bool {
		return math.Abs(signals[i].MomentumPct) > math.Abs(signals[j].MomentumPct)
	})
	if len(signals) > maxMovementResults {
		signals = signals[:maxMovementResults]
	}
	return signals
}

// DetectArbitrage returns cross-venue spreads at or above minSpreadPct,
// naming the cheapest and priciest contributing venue. Symbols with fewer
// than two venues cannot spread and are skipped.
func DetectArbitrage(composites []CompositePrice, minSpreadPct float64) []ArbitrageSignal {
	signals := make([]ArbitrageSignal, 0)
	for _, c := range composites {
		if c.VenueCount < 2 || c.WeightedPrice <= 0 {
			continue
		}
		spread := c.SpreadPct()
		if spread < minSpreadPct {
			continue
		}
		buyExchange, buyPrice := "", math.Inf(1)
		sellExchange, sellPrice := "", math.Inf(-1)
		for _, tick := range c.SourceSnapshots {
			if tick.Price < buyPrice {
				buyExchange, buyPrice = tick.Exchange, tick.Price
			}
			if tick.Price > sellPrice {
				sellExchange, sellPrice = tick.Exchange, tick.Price
			}
		}
		signals = append(signals, ArbitrageSignal{
			Symbol:             c.Symbol,
			SpreadPct:          spread,
			BuyExchange:        buyExchange,
			BuyPrice:           buyPrice,
			SellExchange:       sellExchange,
			SellPrice:          sellPrice,
			ProfitPotentialPct: spread - feeCushionPct,
			WeightedPrice:      c.WeightedPrice,
		})
	}
	sort.Slice(signals, func(i, j int) bool {
		return signals[i].ProfitPotentialPct > signals[j].ProfitPotentialPct
	})
	if len(signals) > maxArbResults {
		signals = signals[:maxArbResults]
	}
	return signals
}
