package strategy

import (
	"math"
	"time"

	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
)

// Indicators are the latest-bar indicator values fed into an evaluation.
// NaN marks a value that is still undefined for lack of history.
type Indicators struct {
	RSI float64
	MA  float64
}

// FilterResult is one filter's verdict with a human-readable rationale.
type FilterResult struct {
	Name       string
	Buy        bool
	Sell       bool
	Commentary string
}

// Evaluation is the full result of one signal evaluation.
type Evaluation struct {
	Signal           model.Signal
	Time             time.Time
	Price            float64
	OutsideHours     bool
	InsufficientData bool
	Filters          []FilterResult
}

// Engine combines the three strategy filters into a ternary BUY/SELL/NONE
// verdict. It is stateless per evaluation: the same inputs always produce
// the same output, and no signal history is kept here (de-duplication is
// the consuming layer's contract).
type Engine struct {
	thresholds config.Thresholds
	window     config.Window
}

// NewEngine creates an Engine from a validated configuration.
func NewEngine(thresholds config.Thresholds, window config.Window) *Engine {
	return &Engine{thresholds: thresholds, window: window}
}

// Evaluate returns the instantaneous verdict for one bar. The trading-hours
// gate is checked before anything else: outside the window the result is
// NONE no matter how extreme the inputs are. Missing Greeks or undefined
// indicators are a normal operating state, reported via InsufficientData,
// never an error.
func (e *Engine) Evaluate(at time.Time, candle model.Candle, ind Indicators, greeks *model.GreeksSnapshot) Evaluation {
	ev := Evaluation{Signal: model.SignalNone, Time: at, Price: candle.Close}

	if !e.window.Contains(at.Hour(), at.Minute()) {
		ev.OutsideHours = true
		return ev
	}
	if greeks == nil || math.IsNaN(ind.RSI) || math.IsNaN(ind.MA) {
		ev.InsufficientData = true
		return ev
	}

	ev.Filters = []FilterResult{
		deltaGammaFilter(greeks, ind, candle.Close, e.thresholds),
		thetaVegaFilter(greeks, e.thresholds),
		volatilityFilter(greeks.VolatilityIndex, e.thresholds),
	}

	// BUY is checked first; the branches are structurally exclusive for
	// sane thresholds, but the engine never emits both.
	if ev.allBuy() {
		ev.Signal = model.SignalBuy
	} else if ev.allSell() {
		ev.Signal = model.SignalSell
	}
	return ev
}

func (ev *Evaluation) allBuy() bool {
	for _, f := range ev.Filters {
		if !f.Buy {
			return false
		}
	}
	return true
}

func (ev *Evaluation) allSell() bool {
	for _, f := range ev.Filters {
		if !f.Sell {
			return false
		}
	}
	return true
}
