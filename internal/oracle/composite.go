package oracle

import (
	"math"
	"sort"
	"time"

	"px-oracle/internal/market"
)

// CompositePrice is the oracle's synthesis of one symbol across all venues
// with a fresh snapshot. It is recomputed wholesale each refresh cycle and
// replaced atomically; consumers must treat it as read-only.
type CompositePrice struct {
	Symbol          string
	WeightedPrice   float64
	SimpleAverage   float64
	Median          float64
	Min             float64
	Max             float64
	PriceVariance   float64
	TotalVolume     float64
	VenueCount      int
	MomentumScore   *float64
	VolatilityScore *float64
	Timestamp       time.Time
	SourceSnapshots []market.PriceTick
}

// Confidence grows with venue coverage and saturates at three venues.
func (c CompositePrice) Confidence() float64 {
	return math.Min(float64(c.VenueCount)/3.0, 1.0)
}

// SpreadPct is the min-to-max venue dispersion relative to the weighted
// price, in percent. Zero when the weighted price is not positive.
func (c CompositePrice) SpreadPct() float64 {
	if c.WeightedPrice <= 0 {
		return 0
	}
	return (c.Max - c.Min) / c.WeightedPrice * 100
}

// Per-exchange base weights reflecting assumed venue depth. Venues outside
// the table still contribute, at a small default weight.
var baseWeights = map[string]float64{
	"binance": 0.60,
	"bybit":   0.25,
	"okx":     0.15,
}

const defaultBaseWeight = 0.10

// volumeWeightCap bounds the volume multiplier so one venue's self-reported
// volume cannot dominate the composite unboundedly.
const volumeWeightCap = 1.0

func venueWeight(exchange string, volume24h float64) float64 {
	base, ok := baseWeights[exchange]
	if !ok {
		base = defaultBaseWeight
	}
	boost := volume24h / 1_000_000
	if boost > volumeWeightCap {
		boost = volumeWeightCap
	}
	if boost < 0 {
		boost = 0
	}
	return base * (1 + boost)
}

// computeComposite builds one composite from the per-venue ticks of a single
// symbol. Returns false when no valid tick is present. The result is a pure
// function of the input ticks: source snapshots are ordered by exchange and
// the timestamp is the newest source tick, so re-aggregating unchanged input
// yields an identical value.
func computeComposite(symbol string, venues map[string]market.PriceTick) (CompositePrice, bool) {
	snapshots := make([]market.PriceTick, 0, len(venues))
	for _, tick := range venues {
		if tick.Price > 0 {
			snapshots = append(snapshots, tick)
		}
	}
	if len(snapshots) == 0 {
		return CompositePrice{}, false
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Exchange < snapshots[j].Exchange })

	prices := make([]float64, len(snapshots))
	var sum, weightedSum, weightSum, totalVolume float64
	var latest time.Time
	var momentumSum float64
	momentumCount := 0
	for i, tick := range snapshots {
		prices[i] = tick.Price
		sum += tick.Price
		weight := venueWeight(tick.Exchange, tick.Volume24h)
		weightedSum += tick.Price * weight
		weightSum += weight
		totalVolume += tick.Volume24h
		if tick.Timestamp.After(latest) {
			latest = tick.Timestamp
		}
		if tick.ChangePct != nil {
			momentumSum += *tick.ChangePct
			momentumCount++
		}
	}

	n := float64(len(prices))
	mean := sum / n
	var variance float64
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= n

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	composite := CompositePrice{
		Symbol:          symbol,
		WeightedPrice:   weightedSum / weightSum,
		SimpleAverage:   mean,
		Median:          median,
		Min:             sorted[0],
		Max:             sorted[len(sorted)-1],
		PriceVariance:   variance,
		TotalVolume:     totalVolume,
		VenueCount:      len(snapshots),
		Timestamp:       latest,
		SourceSnapshots: snapshots,
	}
	if momentumCount > 0 {
		momentum := momentumSum / float64(momentumCount)
		composite.MomentumScore = &momentum
	}
	if composite.WeightedPrice > 0 {
		vol := (composite.Max - composite.Min) / composite.WeightedPrice * 100
		composite.VolatilityScore = &vol
	}
	return composite, true
}
