package feed

import (
	"context"
	"time"

	"px-oracle/internal/market"
	"px-oracle/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Driver runs adapters against the snapshot store: one worker per venue, so
// a slow or failing venue never stalls the others. Transient fetch errors
// are logged and retried after a fixed delay; the venue's last-known-good
// ticks stay in the store until staleness pruning ages them out.
type Driver struct {
	sink    Sink
	log     *zap.Logger
	metrics *metrics.Metrics

	pollInterval time.Duration
	retryDelay   time.Duration
	fetchTimeout time.Duration
}

func NewDriver(sink Sink, pollInterval, retryDelay, fetchTimeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Driver {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Driver{
		sink:         sink,
		log:          log,
		metrics:      m,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
		fetchTimeout: fetchTimeout,
	}
}

// Supervise runs every adapter until ctx is cancelled.
func (d *Driver) Supervise(ctx context.Context, polls []PollAdapter, streams []StreamAdapter) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, adapter := range polls {
		adapter := adapter
		g.Go(func() error { return d.runPoll(ctx, adapter) })
	}
	for _, adapter := range streams {
		adapter := adapter
		g.Go(func() error { return d.runStream(ctx, adapter) })
	}
	return g.Wait()
}

func (d *Driver) runPoll(ctx context.Context, adapter PollAdapter) error {
	log := d.log.With(zap.String("venue", adapter.Name()))
	for {
		delay := d.pollInterval
		if err := d.fetchOnce(ctx, adapter); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.metrics.FetchFailures.Inc()
			log.Warn("fetch failed", zap.Error(err))
			delay = d.retryDelay
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (d *Driver) fetchOnce(ctx context.Context, adapter PollAdapter) error {
	fetchCtx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()
	ticks, err := adapter.Fetch(fetchCtx)
	if err != nil {
		return err
	}
	d.accept(ticks...)
	return nil
}

func (d *Driver) runStream(ctx context.Context, adapter StreamAdapter) error {
	log := d.log.With(zap.String("venue", adapter.Name()))
	for {
		err := adapter.Run(ctx, func(tick market.PriceTick) { d.accept(tick) })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.metrics.FetchFailures.Inc()
		log.Warn("stream ended", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.retryDelay):
		}
	}
}

func (d *Driver) accept(ticks ...market.PriceTick) {
	for _, tick := range ticks {
		if !tick.Valid() {
			continue
		}
		d.sink.Upsert(tick)
		d.metrics.TicksReceived.Inc()
	}
}
