package feed

import (
	"context"
	"encoding/json"
	"time"

	"px-oracle/internal/market"

	"go.uber.org/zap"
)

// Binance streams the combined 24hr ticker feed over websocket and emits one
// tick per symbol message. Binance spells symbols canonically already
// (BTCUSDT), so normalization only has to uppercase.
type Binance struct {
	ws     *wsClient
	log    *zap.Logger
	quotes []string
}

func NewBinance(wsURL string, reconnectDelay time.Duration, quotes []string, log *zap.Logger) *Binance {
	client := newWSClient(wsURL, reconnectDelay, log)
	client.subscribe(map[string]any{
		"method": "SUBSCRIBE",
		"params": []string{"!ticker@arr"},
		"id":     1,
	})
	return &Binance{ws: client, log: log, quotes: quotes}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) Run(ctx context.Context, emit func(market.PriceTick)) error {
	return b.ws.run(ctx, func(msg json.RawMessage) {
		for _, tick := range b.parseMessage(msg) {
			emit(tick)
		}
	})
}

type binanceTicker struct {
	EventType   string `json:"e"`
	EventTimeMS int64  `json:"E"`
	Symbol      string `json:"s"`
	LastPrice   string `json:"c"`
	BidPrice    string `json:"b"`
	AskPrice    string `json:"a"`
	QuoteVolume string `json:"q"`
	ChangePct   string `json:"P"`
}

func (b *Binance) parseMessage(msg json.RawMessage) []market.PriceTick {
	// The combined stream delivers an array of tickers; ack frames and other
	// shapes are ignored.
	var tickers []binanceTicker
	if err := json.Unmarshal(msg, &tickers); err != nil {
		var single binanceTicker
		if err := json.Unmarshal(msg, &single); err != nil || single.EventType == "" {
			return nil
		}
		tickers = []binanceTicker{single}
	}
	ticks := make([]market.PriceTick, 0, len(tickers))
	for _, t := range tickers {
		if t.EventType != "24hrTicker" {
			continue
		}
		tick, ok := b.tickFrom(t)
		if !ok {
			continue
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

func (b *Binance) tickFrom(t binanceTicker) (market.PriceTick, bool) {
	symbol := normalizeSymbol(t.Symbol)
	if symbol == "" || !hasQuoteAsset(symbol, b.quotes) {
		return market.PriceTick{}, false
	}
	price, ok := parsePositive(t.LastPrice)
	if !ok {
		return market.PriceTick{}, false
	}
	tick := market.PriceTick{
		Exchange:  "binance",
		Symbol:    symbol,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}
	if t.EventTimeMS > 0 {
		tick.Timestamp = time.UnixMilli(t.EventTimeMS).UTC()
	}
	if bid, ok := parsePositive(t.BidPrice); ok {
		tick.Bid = bid
	}
	if ask, ok := parsePositive(t.AskPrice); ok {
		tick.Ask = ask
	}
	if vol, ok := parseFloat(t.QuoteVolume); ok && vol >= 0 {
		tick.Volume24h = vol
	}
	if change, ok := parseFloat(t.ChangePct); ok {
		tick.ChangePct = &change
	}
	return tick, true
}
