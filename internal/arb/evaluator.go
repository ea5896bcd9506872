package arb

import (
	"errors"
	"math"
)

// ErrInsufficientDepth covers books too shallow to fill the requested size
// and degenerate inputs that would force a division by zero. Callers get
// this typed failure, never a NaN or Inf result.
var ErrInsufficientDepth = errors.New("insufficient depth or invalid inputs")

type Decision string

const (
	DecisionExecute Decision = "EXECUTE"
	DecisionSkip    Decision = "SKIP"
)

// OrderBookLevel is a caller-supplied {price, quantity} pair, best price
// first: asks for the buy venue, bids for the sell venue.
type OrderBookLevel struct {
	Price    float64
	Quantity float64
}

type EvaluationRequest struct {
	OrderSizeQuote          float64
	AsksBuy                 []OrderBookLevel
	BidsSell                []OrderBookLevel
	FeeBuy                  float64
	FeeSell                 float64
	WithdrawFeeQuote        float64
	ExpectedTransferMinutes float64
	VolBpsPerMinute         float64
	SafetyBufferBps         float64
}

// Evaluation is produced fresh per call and never mutated.
type Evaluation struct {
	ExecSpreadBps float64
	SlippageBps   float64
	LatencyBps    float64
	BreakEvenBps  float64
	NetPnlQuote   float64
	NetMarginPct  float64
	BaseQty       float64
	BuyVwap       float64
	SellVwap      float64
	Decision      Decision
}

const (
	minLatencyBps = 50.0
	maxLatencyBps = 300.0
)

// Evaluate walks order-book depth on both legs to compute the realizable
// VWAP-based economics of a two-leg arbitrage and decides EXECUTE or SKIP.
// Pure function: no shared state, safe for concurrent callers.
func Evaluate(req EvaluationRequest) (Evaluation, error) {
	if req.OrderSizeQuote <= 0 || len(req.AsksBuy) == 0 || len(req.BidsSell) == 0 {
		return Evaluation{}, ErrInsufficientDepth
	}
	bestAsk := req.AsksBuy[0].Price
	bestBid := req.BidsSell[0].Price
	if bestAsk <= 0 || bestBid <= 0 {
		return Evaluation{}, ErrInsufficientDepth
	}

	buyVwap, err := walkDepth(req.AsksBuy, req.OrderSizeQuote/bestAsk)
	if err != nil {
		return Evaluation{}, err
	}
	slippageBuyBps := math.Abs(buyVwap-bestAsk) / bestAsk * 10_000

	// The real fillable base amount given the true average buy cost.
	baseQty := req.OrderSizeQuote / buyVwap
	sellVwap, err := walkDepth(req.BidsSell, baseQty)
	if err != nil {
		return Evaluation{}, err
	}
	slippageSellBps := math.Abs(sellVwap-bestBid) / bestBid * 10_000

	midPrice := (bestAsk + bestBid) / 2
	if midPrice <= 0 {
		return Evaluation{}, ErrInsufficientDepth
	}

	grossQuote := baseQty * (sellVwap*(1-req.FeeSell) - buyVwap*(1+req.FeeBuy))

	var latencyBps, latencyCost float64
	if req.ExpectedTransferMinutes > 0 {
		latencyBps = clamp(2*req.VolBpsPerMinute*req.ExpectedTransferMinutes, minLatencyBps, maxLatencyBps)
		latencyCost = latencyBps / 10_000 * baseQty * midPrice
	}

	netQuote := grossQuote - req.WithdrawFeeQuote - latencyCost
	execSpreadBps := (sellVwap - buyVwap) / midPrice * 10_000
	breakEvenBps := (req.FeeBuy+req.FeeSell)*10_000 + slippageBuyBps + slippageSellBps + req.SafetyBufferBps

	decision := DecisionSkip
	if execSpreadBps > breakEvenBps && netQuote > 0 {
		decision = DecisionExecute
	}

	return Evaluation{
		ExecSpreadBps: execSpreadBps,
		SlippageBps:   slippageBuyBps + slippageSellBps,
		LatencyBps:    latencyBps,
		BreakEvenBps:  breakEvenBps,
		NetPnlQuote:   netQuote,
		NetMarginPct:  netQuote / req.OrderSizeQuote * 100,
		BaseQty:       baseQty,
		BuyVwap:       buyVwap,
		SellVwap:      sellVwap,
		Decision:      decision,
	}, nil
}

// walkDepth fills qty against levels best-to-worst and returns the achieved
// VWAP. The book failing to cover qty is ErrInsufficientDepth.
func walkDepth(levels []OrderBookLevel, qty float64) (float64, error) {
	if qty <= 0 {
		return 0, ErrInsufficientDepth
	}
	var cost, filled float64
	remaining := qty
	for _, level := range levels {
		if level.Price <= 0 || level.Quantity <= 0 {
			continue
		}
		take := math.Min(level.Quantity, remaining)
		cost += take * level.Price
		filled += take
		remaining -= take
		if remaining <= 0 {
			break
		}
	}
	if remaining > 0 || filled <= 0 {
		return 0, ErrInsufficientDepth
	}
	return cost / filled, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
