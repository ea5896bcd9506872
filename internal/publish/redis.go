package publish

import (
	"context"
	"encoding/json"
	"time"

	"px-oracle/internal/config"
	"px-oracle/internal/metrics"
	"px-oracle/internal/oracle"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// Publisher pushes each composite generation onto a redis pub/sub channel and
// mirrors the latest composite per symbol into a hash so consumers can catch
// up without replaying the stream.
type Publisher struct {
	rdb     *redis.Client
	log     *zap.Logger
	metrics *metrics.Metrics
	channel string
}

type compositePayload struct {
	Symbol        string    `json:"symbol"`
	WeightedPrice float64   `json:"weighted_price"`
	SimpleAverage float64   `json:"simple_average"`
	Median        float64   `json:"median"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	PriceVariance float64   `json:"price_variance"`
	TotalVolume   float64   `json:"total_volume"`
	VenueCount    int       `json:"venue_count"`
	Momentum      *float64  `json:"momentum,omitempty"`
	Volatility    *float64  `json:"volatility,omitempty"`
	Confidence    float64   `json:"confidence"`
	Timestamp     time.Time `json:"timestamp"`
}

func New(cfg config.PublishConfig, log *zap.Logger, m *metrics.Metrics) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Publisher{rdb: rdb, log: log, metrics: m, channel: cfg.Channel}, nil
}

func (p *Publisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// Publish fans one refresh generation out to subscribers. Failures are
// counted and logged but never propagate; the oracle must not stall on a
// slow or absent broker.
func (p *Publisher) Publish(ctx context.Context, generation []oracle.CompositePrice) {
	if p == nil || len(generation) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	for _, composite := range generation {
		payload := compositePayload{
			Symbol:        composite.Symbol,
			WeightedPrice: composite.WeightedPrice,
			SimpleAverage: composite.SimpleAverage,
			Median:        composite.Median,
			Min:           composite.Min,
			Max:           composite.Max,
			PriceVariance: composite.PriceVariance,
			TotalVolume:   composite.TotalVolume,
			VenueCount:    composite.VenueCount,
			Momentum:      composite.MomentumScore,
			Volatility:    composite.VolatilityScore,
			Confidence:    composite.Confidence(),
			Timestamp:     composite.Timestamp,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			p.metrics.PublishDrops.Inc()
			continue
		}
		if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
			p.metrics.PublishDrops.Inc()
			if p.log != nil {
				p.log.Warn("composite publish failed", zap.String("symbol", composite.Symbol), zap.Error(err))
			}
			continue
		}
		if err := p.rdb.HSet(ctx, p.channel+":latest", composite.Symbol, data).Err(); err != nil && p.log != nil {
			p.log.Warn("composite latest hset failed", zap.String("symbol", composite.Symbol), zap.Error(err))
		}
	}
}

// PublishSignals pushes detector output onto a sibling channel. Same
// fire-and-forget posture as Publish.
func (p *Publisher) PublishSignals(ctx context.Context, signals []oracle.ArbitrageSignal) {
	if p == nil || len(signals) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	data, err := json.Marshal(signals)
	if err != nil {
		p.metrics.PublishDrops.Inc()
		return
	}
	if err := p.rdb.Publish(ctx, p.channel+":signals", data).Err(); err != nil {
		p.metrics.PublishDrops.Inc()
		if p.log != nil {
			p.log.Warn("signal publish failed", zap.Error(err))
		}
	}
}
