package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"px-oracle/internal/market"

	"go.uber.org/zap"
)

// OKX polls the v5 spot ticker table. OKX spells instruments with a dash
// (BTC-USDT) and reports no change percentage directly, so momentum is
// derived from the 24h open.
type OKX struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	quotes  []string
}

func NewOKX(baseURL string, timeout time.Duration, quotes []string, log *zap.Logger) *OKX {
	return &OKX{baseURL: baseURL, http: newHTTPClient(timeout), log: log, quotes: quotes}
}

func (o *OKX) Name() string { return "okx" }

type okxTicker struct {
	InstID      string `json:"instId"`
	Last        string `json:"last"`
	BidPx       string `json:"bidPx"`
	AskPx       string `json:"askPx"`
	VolCcy24h   string `json:"volCcy24h"`
	Open24h     string `json:"open24h"`
}

type okxResponse struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data []okxTicker `json:"data"`
}

func (o *OKX) Fetch(ctx context.Context) ([]market.PriceTick, error) {
	var resp okxResponse
	url := o.baseURL + "/api/v5/market/tickers?instType=SPOT"
	if err := getJSON(ctx, o.http, url, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("okx code %s: %s", resp.Code, resp.Msg)
	}
	now := time.Now().UTC()
	ticks := make([]market.PriceTick, 0, len(resp.Data))
	for _, t := range resp.Data {
		tick, ok := o.tickFrom(t, now)
		if !ok {
			continue
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

func (o *OKX) tickFrom(t okxTicker, now time.Time) (market.PriceTick, bool) {
	symbol := normalizeSymbol(t.InstID)
	if symbol == "" || !hasQuoteAsset(symbol, o.quotes) {
		return market.PriceTick{}, false
	}
	price, ok := parsePositive(t.Last)
	if !ok {
		return market.PriceTick{}, false
	}
	tick := market.PriceTick{
		Exchange:  "okx",
		Symbol:    symbol,
		Price:     price,
		Timestamp: now,
	}
	if bid, ok := parsePositive(t.BidPx); ok {
		tick.Bid = bid
	}
	if ask, ok := parsePositive(t.AskPx); ok {
		tick.Ask = ask
	}
	if vol, ok := parseFloat(t.VolCcy24h); ok && vol >= 0 {
		tick.Volume24h = vol
	}
	if open, ok := parsePositive(t.Open24h); ok {
		pct := (price - open) / open * 100
		tick.ChangePct = &pct
	}
	return tick, true
}
