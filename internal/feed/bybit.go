package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"px-oracle/internal/market"

	"go.uber.org/zap"
)

// Bybit polls the v5 spot ticker table. Bybit reports the 24h change as a
// decimal fraction ("0.0153"), converted here to percent.
type Bybit struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	quotes  []string
}

func NewBybit(baseURL string, timeout time.Duration, quotes []string, log *zap.Logger) *Bybit {
	return &Bybit{baseURL: baseURL, http: newHTTPClient(timeout), log: log, quotes: quotes}
}

func (b *Bybit) Name() string { return "bybit" }

type bybitTicker struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	Bid1Price   string `json:"bid1Price"`
	Ask1Price   string `json:"ask1Price"`
	Turnover24h string `json:"turnover24h"`
	Price24hPct string `json:"price24hPcnt"`
}

type bybitResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []bybitTicker `json:"list"`
	} `json:"result"`
}

func (b *Bybit) Fetch(ctx context.Context) ([]market.PriceTick, error) {
	var resp bybitResponse
	url := b.baseURL + "/v5/market/tickers?category=spot"
	if err := getJSON(ctx, b.http, url, &resp); err != nil {
		return nil, err
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit retCode %d: %s", resp.RetCode, resp.RetMsg)
	}
	now := time.Now().UTC()
	ticks := make([]market.PriceTick, 0, len(resp.Result.List))
	for _, t := range resp.Result.List {
		tick, ok := b.tickFrom(t, now)
		if !ok {
			continue
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

func (b *Bybit) tickFrom(t bybitTicker, now time.Time) (market.PriceTick, bool) {
	symbol := normalizeSymbol(t.Symbol)
	if symbol == "" || !hasQuoteAsset(symbol, b.quotes) {
		return market.PriceTick{}, false
	}
	price, ok := parsePositive(t.LastPrice)
	if !ok {
		return market.PriceTick{}, false
	}
	tick := market.PriceTick{
		Exchange:  "bybit",
		Symbol:    symbol,
		Price:     price,
		Timestamp: now,
	}
	if bid, ok := parsePositive(t.Bid1Price); ok {
		tick.Bid = bid
	}
	if ask, ok := parsePositive(t.Ask1Price); ok {
		tick.Ask = ask
	}
	if vol, ok := parseFloat(t.Turnover24h); ok && vol >= 0 {
		tick.Volume24h = vol
	}
	if fraction, ok := parseFloat(t.Price24hPct); ok {
		pct := fraction * 100
		tick.ChangePct = &pct
	}
	return tick, true
}
