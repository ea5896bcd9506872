package feed

import (
	"strconv"
	"strings"
)

// parseFloat converts a venue-native numeric string to a float. Empty,
// unparsable, and non-finite inputs report ok == false so callers treat them
// as "no value" rather than a bad zero.
func parseFloat(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parsePositive is parseFloat restricted to values a price field may carry.
func parsePositive(raw string) (float64, bool) {
	v, ok := parseFloat(raw)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

var symbolSeparators = strings.NewReplacer("-", "", "/", "", "_", "")

// normalizeSymbol maps venue-native spellings (BTC-USDT, BTC/USDT, btcusdt)
// to the canonical form (BTCUSDT).
func normalizeSymbol(raw string) string {
	return strings.ToUpper(symbolSeparators.Replace(strings.TrimSpace(raw)))
}

// hasQuoteAsset reports whether a canonical symbol ends in one of the quote
// assets of interest.
func hasQuoteAsset(symbol string, quotes []string) bool {
	for _, quote := range quotes {
		if len(symbol) > len(quote) && strings.HasSuffix(symbol, quote) {
			return true
		}
	}
	return false
}
