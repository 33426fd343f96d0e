package model

// OptionQuote holds the Greeks and trading stats for one leg of an option pair.
type OptionQuote struct {
	Delta      float64
	Gamma      float64
	Theta      float64
	Vega       float64
	ImpliedVol float64
	LastPrice  float64
	ChangeInOI float64
	Volume     float64
}

// GreeksSnapshot is the nearest-ATM call/put pair for one expiry at fetch time.
// The engine keeps no history; each evaluation uses the latest snapshot.
type GreeksSnapshot struct {
	Call            OptionQuote
	Put             OptionQuote
	StrikePrice     float64
	ExpiryDate      string
	VolatilityIndex float64
}
