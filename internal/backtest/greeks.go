package backtest

import (
	"math"
	"math/rand"

	"OptionSentinel/internal/model"
)

// Base values for the synthetic Greeks path.
const (
	baseCallDelta = 0.5
	basePutDelta  = -0.5
	baseGamma     = 0.05
	baseTheta     = -0.1
	baseVega      = 0.2
	baseVIX       = 15.0

	thetaDecay = 1.01
	vegaDecay  = 0.99
	vixStep    = 0.5
	vixFloor   = 10.0
	vixCeil    = 30.0
)

// SyntheticGreeksPath derives one Greeks snapshot per candle from price
// returns alone. Real historical option Greeks are not observable, so the
// simulator replays the rule set against this stand-in: delta drifts toward
// the extremes with price direction, gamma shrinks as delta leaves 0.5,
// theta and vega decay geometrically, and the volatility index follows a
// clamped random walk. It is a plausibility device, not a pricing model.
// The path is fully determined by the candles and the seed.
func SyntheticGreeksPath(candles []model.Candle, seed int64) []model.GreeksSnapshot {
	rng := rand.New(rand.NewSource(seed))
	path := make([]model.GreeksSnapshot, len(candles))
	if len(candles) == 0 {
		return path
	}

	snap := model.GreeksSnapshot{
		Call:            model.OptionQuote{Delta: baseCallDelta, Gamma: baseGamma, Theta: baseTheta, Vega: baseVega},
		Put:             model.OptionQuote{Delta: basePutDelta, Gamma: baseGamma, Theta: baseTheta, Vega: baseVega},
		StrikePrice:     nearestStrike(candles[0].Close),
		VolatilityIndex: baseVIX,
	}
	path[0] = snap

	for i := 1; i < len(candles); i++ {
		ret := candles[i].Close/candles[i-1].Close - 1

		snap.Call.Delta = clamp(snap.Call.Delta+ret*0.5, 0.05, 0.95)
		snap.Put.Delta = clamp(snap.Put.Delta-ret*0.5, -0.95, -0.05)

		gamma := math.Max(0.01, baseGamma-math.Abs(snap.Call.Delta-baseCallDelta)*0.1)
		snap.Call.Gamma = gamma
		snap.Put.Gamma = gamma

		snap.Call.Theta *= thetaDecay
		snap.Put.Theta *= thetaDecay
		snap.Call.Vega *= vegaDecay
		snap.Put.Vega *= vegaDecay

		snap.VolatilityIndex = clamp(snap.VolatilityIndex+rng.NormFloat64()*vixStep, vixFloor, vixCeil)

		path[i] = snap
	}
	return path
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// nearestStrike rounds to the 50-point grid used by NIFTY strikes.
func nearestStrike(price float64) float64 {
	return math.Round(price/50) * 50
}
