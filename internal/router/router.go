package router

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"px-oracle/internal/metrics"
	"px-oracle/internal/risk"
)

// Result is the typed outcome of one trade attempt: either an approval with
// the recorded fill id, or a rejection with a human-readable reason. Never
// an exception surface.
type Result struct {
	Approved bool
	Reason   string
	FillID   string
}

// Router runs the propose-then-record pipeline: the risk guard gates the
// notional, and an approved attempt is recorded as a mock fill against the
// inventory ledger. No order ever reaches a real exchange from here.
type Router struct {
	guard   *risk.Guard
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(guard *risk.Guard, log *zap.Logger, m *metrics.Metrics) *Router {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Router{guard: guard, log: log, metrics: m}
}

func (r *Router) ProposeAndRecord(symbol, buyVenue, sellVenue string, orderSizeQuote, baseQty float64) Result {
	if symbol == "" || buyVenue == "" || sellVenue == "" || buyVenue == sellVenue {
		r.metrics.TradesRejected.Inc()
		return Result{Reason: "invalid proposal: symbol and two distinct venues are required"}
	}
	if orderSizeQuote <= 0 || baseQty <= 0 {
		r.metrics.TradesRejected.Inc()
		return Result{Reason: "invalid proposal: order size and base quantity must be positive"}
	}
	if err := r.guard.Propose(orderSizeQuote); err != nil {
		r.metrics.TradesRejected.Inc()
		r.log.Info("trade rejected",
			zap.String("symbol", symbol),
			zap.Float64("notional", orderSizeQuote),
			zap.String("reason", err.Error()),
		)
		return Result{Reason: err.Error()}
	}

	fillID := uuid.NewString()
	r.guard.RecordFill(symbol, buyVenue, sellVenue, orderSizeQuote, baseQty)
	r.metrics.TradesApproved.Inc()
	r.log.Info("trade recorded",
		zap.String("fill_id", fillID),
		zap.String("symbol", symbol),
		zap.String("buy_venue", buyVenue),
		zap.String("sell_venue", sellVenue),
		zap.Float64("notional", orderSizeQuote),
		zap.Float64("base_qty", baseQty),
		zap.Bool("dry_run", r.guard.Config().DryRun),
	)
	return Result{Approved: true, FillID: fillID}
}
