package backtest

import (
	"fmt"
	"math"
	"time"

	"OptionSentinel/internal/calculator"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/strategy"
)

// Result is the full output of one backtest run.
type Result struct {
	Trades      []model.Trade
	EquityCurve []model.EquityPoint
	Metrics     model.PerformanceMetrics
}

// Simulator replays the signal engine bar-by-bar over a candle sequence,
// tracking a single position with stop-loss/take-profit exits. It owns the
// position and capital state exclusively for the duration of a run;
// everything it needs is fetched upfront, so a run is a pure fold.
type Simulator struct {
	engine            *strategy.Engine
	window            config.Window
	rsiPeriod         int
	maPeriod          int
	initialCapital    float64
	stopLossPercent   float64
	takeProfitPercent float64
	seed              int64
}

// NewSimulator builds a Simulator from a validated configuration and the
// shared signal engine. The live loop and the backtest run the exact same
// rule set; only the Greeks source differs.
func NewSimulator(cfg *config.Config, engine *strategy.Engine) *Simulator {
	return &Simulator{
		engine:            engine,
		window:            cfg.TradingHours,
		rsiPeriod:         cfg.Indicators.RSIPeriod,
		maPeriod:          cfg.Indicators.MAPeriod,
		initialCapital:    cfg.Backtest.InitialCapital,
		stopLossPercent:   cfg.Risk.StopLossPercent,
		takeProfitPercent: cfg.Risk.TakeProfitPercent,
		seed:              cfg.Backtest.Seed,
	}
}

// Run replays the candle sequence. Malformed input (non-monotonic
// timestamps, NaN prices) fails fast; a valid run never fails.
func (s *Simulator) Run(candles []model.Candle) (*Result, error) {
	if err := validateCandles(candles); err != nil {
		return nil, err
	}

	series, err := calculator.Annotate(candles, s.rsiPeriod, s.maPeriod)
	if err != nil {
		return nil, fmt.Errorf("annotate candles: %w", err)
	}
	greeks := SyntheticGreeksPath(candles, s.seed)

	capital := s.initialCapital
	position := model.Position{Direction: model.DirectionFlat}
	var trades []model.Trade
	equity := []model.EquityPoint{{Time: candles[0].Time, Equity: capital}}

	for i := 1; i < len(candles); i++ {
		bar := candles[i]
		if !s.window.Contains(bar.Time.Hour(), bar.Time.Minute()) {
			continue
		}

		// Exit first: an open position is checked against stop-loss and
		// take-profit before any new entry is considered.
		if position.Direction != model.DirectionFlat {
			pnlPercent := pnlPercentOf(position, bar.Close)
			if pnlPercent <= -s.stopLossPercent || pnlPercent >= s.takeProfitPercent {
				reason := model.ExitTakeProfit
				if pnlPercent < 0 {
					reason = model.ExitStopLoss
				}
				trade := closePosition(position, bar.Close, bar.Time, reason)
				capital += trade.PnL
				trades = append(trades, trade)
				position = model.Position{Direction: model.DirectionFlat}
			}
		}

		if position.Direction == model.DirectionFlat {
			rsi, ma := series.At(i)
			ev := s.engine.Evaluate(bar.Time, bar, strategy.Indicators{RSI: rsi, MA: ma}, &greeks[i])
			switch ev.Signal {
			case model.SignalBuy:
				position = model.Position{Direction: model.DirectionLong, EntryPrice: bar.Close, EntryTime: bar.Time}
			case model.SignalSell:
				position = model.Position{Direction: model.DirectionShort, EntryPrice: bar.Close, EntryTime: bar.Time}
			}
		}

		current := capital
		if position.Direction != model.DirectionFlat {
			current += (bar.Close - position.EntryPrice) * position.Direction.Sign()
		}
		equity = append(equity, model.EquityPoint{Time: bar.Time, Equity: current})
	}

	// Force-close whatever is still open at the final bar, regardless of
	// the stop-loss/take-profit state.
	if position.Direction != model.DirectionFlat {
		last := candles[len(candles)-1]
		trade := closePosition(position, last.Close, last.Time, model.ExitEndOfData)
		capital += trade.PnL
		trades = append(trades, trade)
	}

	metrics := ComputeMetrics(trades, equity, s.initialCapital, capital)
	return &Result{Trades: trades, EquityCurve: equity, Metrics: metrics}, nil
}

func pnlPercentOf(p model.Position, price float64) float64 {
	return (price/p.EntryPrice - 1) * 100 * p.Direction.Sign()
}

func closePosition(p model.Position, price float64, at time.Time, reason model.ExitReason) model.Trade {
	return model.Trade{
		EntryTime:  p.EntryTime,
		ExitTime:   at,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Direction:  p.Direction,
		PnL:        (price - p.EntryPrice) * p.Direction.Sign(),
		PnLPercent: pnlPercentOf(p, price),
		ExitReason: reason,
	}
}

func validateCandles(candles []model.Candle) error {
	if len(candles) < 2 {
		return fmt.Errorf("backtest needs at least 2 candles, got %d", len(candles))
	}
	for i, c := range candles {
		if math.IsNaN(c.Open) || math.IsNaN(c.High) || math.IsNaN(c.Low) || math.IsNaN(c.Close) {
			return fmt.Errorf("candle %d (%s) has NaN price", i, c.Time.Format("2006-01-02 15:04"))
		}
		if i > 0 && !c.Time.After(candles[i-1].Time) {
			return fmt.Errorf("candle %d (%s) timestamp is not after candle %d (%s)",
				i, c.Time.Format("2006-01-02 15:04"), i-1, candles[i-1].Time.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
