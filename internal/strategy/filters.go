package strategy

import (
	"fmt"

	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
)

// deltaGammaFilter is the directional filter: option sensitivity must line
// up with momentum (RSI vs 50) and trend (close vs MA).
//
// The SELL branch checks put.Gamma > gamma threshold, same sign as the BUY
// branch: gamma of a long option is positive for puts as well as calls, so
// a negative cutoff would never trigger.
func deltaGammaFilter(g *model.GreeksSnapshot, ind Indicators, close float64, th config.Thresholds) FilterResult {
	buy := g.Call.Delta > th.Delta &&
		g.Call.Gamma > th.Gamma &&
		ind.RSI > 50 &&
		close > ind.MA
	sell := g.Put.Delta < -th.Delta &&
		g.Put.Gamma > th.Gamma &&
		ind.RSI < 50 &&
		close < ind.MA

	return FilterResult{
		Name: "delta-gamma",
		Buy:  buy,
		Sell: sell,
		Commentary: fmt.Sprintf("callΔ=%.2f putΔ=%.2f callΓ=%.3f putΓ=%.3f rsi=%.1f close=%.2f ma=%.2f",
			g.Call.Delta, g.Put.Delta, g.Call.Gamma, g.Put.Gamma, ind.RSI, close, ind.MA),
	}
}

// thetaVegaFilter confirms the trade: low time decay with rising
// volatility sensitivity for calls, the mirror image for puts.
func thetaVegaFilter(g *model.GreeksSnapshot, th config.Thresholds) FilterResult {
	buy := g.Call.Theta < th.Theta && g.Call.Vega > th.Vega
	sell := g.Put.Theta > th.Theta && g.Put.Vega < -th.Vega

	return FilterResult{
		Name: "theta-vega",
		Buy:  buy,
		Sell: sell,
		Commentary: fmt.Sprintf("callΘ=%.3f callν=%.3f putΘ=%.3f putν=%.3f",
			g.Call.Theta, g.Call.Vega, g.Put.Theta, g.Put.Vega),
	}
}

// volatilityFilter is the regime gate on the volatility index: calm markets
// for longs, stressed markets for shorts.
func volatilityFilter(vix float64, th config.Thresholds) FilterResult {
	return FilterResult{
		Name:       "volatility",
		Buy:        vix < th.VIXBuy,
		Sell:       vix > th.VIXSell,
		Commentary: fmt.Sprintf("vix=%.2f buy<%.1f sell>%.1f", vix, th.VIXBuy, th.VIXSell),
	}
}
