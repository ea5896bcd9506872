package feed

import (
	"context"

	"px-oracle/internal/market"
)

// PollAdapter fetches a venue's full ticker table on demand. Implementations
// normalize symbols to canonical form, filter to the quote assets of
// interest, and drop unparsable or non-positive prices instead of emitting
// bad ticks.
type PollAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]market.PriceTick, error)
}

// StreamAdapter pushes ticks as venue messages arrive. Run blocks until ctx
// is cancelled and owns its reconnect discipline internally.
type StreamAdapter interface {
	Name() string
	Run(ctx context.Context, emit func(market.PriceTick)) error
}

// Sink receives normalized ticks. *market.SnapshotStore satisfies it.
type Sink interface {
	Upsert(market.PriceTick)
}
