package feed

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBinance() *Binance {
	return NewBinance("wss://example.invalid/ws", time.Second, []string{"USDT", "USD"}, zap.NewNop())
}

func TestBinanceParseTickerArray(t *testing.T) {
	b := newTestBinance()
	msg := json.RawMessage(`[
		{"e":"24hrTicker","E":1700000000000,"s":"BTCUSDT","c":"109600.10","b":"109599.9","a":"109600.3","q":"2500000.5","P":"1.25"},
		{"e":"24hrTicker","E":1700000000000,"s":"ETHBTC","c":"0.05","b":"0.049","a":"0.051","q":"1000","P":"-0.5"},
		{"e":"24hrTicker","E":1700000000000,"s":"SOLUSDT","c":"0","q":"10","P":"0"}
	]`)
	ticks := b.parseMessage(msg)
	if len(ticks) != 1 {
		t.Fatalf("expected 1 tick (quote filter + zero price drop), got %d", len(ticks))
	}
	tick := ticks[0]
	if tick.Exchange != "binance" || tick.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected identity %s/%s", tick.Exchange, tick.Symbol)
	}
	if tick.Price != 109600.10 || tick.Bid != 109599.9 || tick.Ask != 109600.3 {
		t.Fatalf("unexpected prices %+v", tick)
	}
	if tick.Volume24h != 2500000.5 {
		t.Fatalf("unexpected volume %f", tick.Volume24h)
	}
	if tick.ChangePct == nil || *tick.ChangePct != 1.25 {
		t.Fatalf("unexpected change pct %v", tick.ChangePct)
	}
	if tick.Timestamp != time.UnixMilli(1700000000000).UTC() {
		t.Fatalf("unexpected timestamp %s", tick.Timestamp)
	}
}

func TestBinanceParseSingleTicker(t *testing.T) {
	b := newTestBinance()
	msg := json.RawMessage(`{"e":"24hrTicker","E":1700000000000,"s":"ethusdt","c":"4000","q":"100"}`)
	ticks := b.parseMessage(msg)
	if len(ticks) != 1 || ticks[0].Symbol != "ETHUSDT" {
		t.Fatalf("expected normalized single tick, got %+v", ticks)
	}
	if ticks[0].ChangePct != nil {
		t.Fatalf("missing change pct must stay nil")
	}
}

func TestBinanceIgnoresAckFrames(t *testing.T) {
	b := newTestBinance()
	if ticks := b.parseMessage(json.RawMessage(`{"result":null,"id":1}`)); len(ticks) != 0 {
		t.Fatalf("subscribe ack must produce no ticks, got %d", len(ticks))
	}
	if ticks := b.parseMessage(json.RawMessage(`not json`)); len(ticks) != 0 {
		t.Fatalf("garbage must produce no ticks")
	}
}
