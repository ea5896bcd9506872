package feed

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC-USDT":  "BTCUSDT",
		"BTC/USDT":  "BTCUSDT",
		"btc_usdt":  "BTCUSDT",
		" ethusdt ": "ETHUSDT",
		"BTCUSDT":   "BTCUSDT",
	}
	for in, want := range cases {
		if got := normalizeSymbol(in); got != want {
			t.Fatalf("normalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFloat(t *testing.T) {
	if v, ok := parseFloat("109600.5"); !ok || v != 109600.5 {
		t.Fatalf("parseFloat valid: %f ok=%v", v, ok)
	}
	if _, ok := parseFloat(""); ok {
		t.Fatalf("empty string must not parse")
	}
	if _, ok := parseFloat("n/a"); ok {
		t.Fatalf("garbage must not parse")
	}
}

func TestParsePositiveRejectsZero(t *testing.T) {
	if _, ok := parsePositive("0"); ok {
		t.Fatalf("zero price must be treated as no tick")
	}
	if _, ok := parsePositive("-1"); ok {
		t.Fatalf("negative price must be treated as no tick")
	}
	if v, ok := parsePositive("42"); !ok || v != 42 {
		t.Fatalf("positive price must parse, got %f ok=%v", v, ok)
	}
}

func TestHasQuoteAsset(t *testing.T) {
	quotes := []string{"USDT", "USD"}
	if !hasQuoteAsset("BTCUSDT", quotes) {
		t.Fatalf("BTCUSDT should match USDT")
	}
	if !hasQuoteAsset("ETHUSD", quotes) {
		t.Fatalf("ETHUSD should match USD")
	}
	if hasQuoteAsset("BTCEUR", quotes) {
		t.Fatalf("BTCEUR should not match")
	}
	// The bare quote asset itself is not a tradable symbol.
	if hasQuoteAsset("USDT", quotes) {
		t.Fatalf("bare quote asset should not match")
	}
}
