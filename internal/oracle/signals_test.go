package oracle

import (
	"fmt"
	"math"
	"testing"
	"time"

	"px-oracle/internal/market"
)

func compositeWithMomentum(symbol string, momentum *float64) CompositePrice {
	return CompositePrice{Symbol: symbol, WeightedPrice: 100, VenueCount: 2, MomentumScore: momentum}
}

func TestDetectMovementsThresholdAndOrder(t *testing.T) {
	composites := []CompositePrice{
		compositeWithMomentum("BTCUSDT", floatPtr(2.0)),
		compositeWithMomentum("ETHUSDT", floatPtr(-5.0)),
		compositeWithMomentum("SOLUSDT", floatPtr(0.5)),
		compositeWithMomentum("XRPUSDT", nil),
	}
	signals := DetectMovements(composites, 1.0)
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Symbol != "ETHUSDT" || signals[1].Symbol != "BTCUSDT" {
		t.Fatalf("wrong order: %s, %s", signals[0].Symbol, signals[1].Symbol)
	}
}

func TestDetectMovementsCapsResults(t *testing.T) {
	composites := make([]CompositePrice, 0, maxMovementResults+10)
	for i := 0; i < maxMovementResults+10; i++ {
		composites = append(composites, compositeWithMomentum(fmt.Sprintf("SYM%d", i), floatPtr(float64(i+1))))
	}
	signals := DetectMovements(composites, 0.5)
	if len(signals) != maxMovementResults {
		t.Fatalf("expected cap %d, got %d", maxMovementResults, len(signals))
	}
}

func arbComposite(symbol string, buyVenue string, buyPrice float64, sellVenue string, sellPrice float64) CompositePrice {
	now := time.Now()
	venues := map[string]market.PriceTick{
		buyVenue:  {Exchange: buyVenue, Symbol: symbol, Price: buyPrice, Timestamp: now},
		sellVenue: {Exchange: sellVenue, Symbol: symbol, Price: sellPrice, Timestamp: now},
	}
	composite, _ := computeComposite(symbol, venues)
	return composite
}

func TestDetectArbitrageNamesVenues(t *testing.T) {
	composite := arbComposite("BTCUSDT", "binance", 109600, "bybit", 109650)
	signals := DetectArbitrage([]CompositePrice{composite}, 0.01)
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	sig := signals[0]
	if sig.BuyExchange != "binance" || sig.SellExchange != "bybit" {
		t.Fatalf("wrong venues: buy %s sell %s", sig.BuyExchange, sig.SellExchange)
	}
	if sig.BuyPrice != 109600 || sig.SellPrice != 109650 {
		t.Fatalf("wrong prices: %f / %f", sig.BuyPrice, sig.SellPrice)
	}
	wantSpread := (109650.0 - 109600.0) / composite.WeightedPrice * 100
	if math.Abs(sig.SpreadPct-wantSpread) > 1e-9 {
		t.Fatalf("spread %f, want %f", sig.SpreadPct, wantSpread)
	}
	if math.Abs(sig.ProfitPotentialPct-(wantSpread-feeCushionPct)) > 1e-9 {
		t.Fatalf("profit potential %f", sig.ProfitPotentialPct)
	}
}

func TestDetectArbitrageSkipsSingleVenue(t *testing.T) {
	single, _ := computeComposite("BTCUSDT", map[string]market.PriceTick{
		"binance": {Exchange: "binance", Symbol: "BTCUSDT", Price: 109600, Timestamp: time.Now()},
	})
	if signals := DetectArbitrage([]CompositePrice{single}, 0); len(signals) != 0 {
		t.Fatalf("expected no signal for single-venue symbol, got %d", len(signals))
	}
}

func TestDetectArbitrageThresholdFilters(t *testing.T) {
	composite := arbComposite("BTCUSDT", "binance", 100, "bybit", 100.5)
	if signals := DetectArbitrage([]CompositePrice{composite}, 1.0); len(signals) != 0 {
		t.Fatalf("expected spread below threshold to be filtered")
	}
	if signals := DetectArbitrage([]CompositePrice{composite}, 0.1); len(signals) != 1 {
		t.Fatalf("expected spread above threshold to pass")
	}
}

func TestDetectArbitrageOrdersByProfit(t *testing.T) {
	wide := arbComposite("ETHUSDT", "binance", 100, "bybit", 103)
	narrow := arbComposite("BTCUSDT", "binance", 100, "bybit", 101)
	signals := DetectArbitrage([]CompositePrice{narrow, wide}, 0.1)
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Symbol != "ETHUSDT" {
		t.Fatalf("expected widest spread first, got %s", signals[0].Symbol)
	}
}
