package market

import "time"

// PriceTick is one venue's view of one symbol at one instant. Adapters emit
// ticks only for prices that parsed to a positive float; a zero or unparsable
// price means "no tick", never a tick with Price == 0.
type PriceTick struct {
	Exchange  string
	Symbol    string
	Price     float64
	Volume24h float64
	Bid       float64
	Ask       float64
	ChangePct *float64
	Timestamp time.Time
}

func (t PriceTick) Valid() bool {
	return t.Exchange != "" && t.Symbol != "" && t.Price > 0
}
