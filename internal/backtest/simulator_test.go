package backtest

import (
	"math"
	"reflect"
	"testing"
	"time"

	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/strategy"
)

// testConfig keeps the indicator windows short so signals fire within a
// handful of bars, and sets the VIX cutoffs above the synthetic walk's
// ceiling so the volatility filter never blocks a buy regardless of the
// random path.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Indicators.RSIPeriod = 5
	cfg.Indicators.MAPeriod = 5
	cfg.Thresholds = config.Thresholds{Delta: 0.3, Gamma: 0.02, Theta: 0.05, Vega: 0.1, VIXBuy: 40, VIXSell: 50}
	cfg.TradingHours = config.Window{StartHour: 9, StartMinute: 15, EndHour: 15, EndMinute: 30}
	cfg.Risk.StopLossPercent = 1.0
	cfg.Risk.TakeProfitPercent = 2.0
	cfg.Backtest.InitialCapital = 100000
	cfg.Backtest.Seed = 42
	return cfg
}

func newTestSimulator(cfg *config.Config) *Simulator {
	engine := strategy.NewEngine(cfg.Thresholds, cfg.TradingHours)
	return NewSimulator(cfg, engine)
}

// barSeries builds 15-minute candles starting at the session open with the
// given closes.
func barSeries(closes []float64) []model.Candle {
	start := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Time:  start.Add(time.Duration(i) * 15 * time.Minute),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return candles
}

// risingCloses produce a steady uptrend: RSI pins at 100 once defined and
// the close stays above its moving average, so the buy branch opens a long
// as soon as the indicators have enough history.
func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 0.05*float64(i)
	}
	return closes
}

func TestRun_StopLossExit(t *testing.T) {
	// Uptrend through bar 9, then a drop past the 1% stop at bar 10.
	closes := risingCloses(10)
	closes = append(closes, 99.0)
	candles := barSeries(closes)

	sim := newTestSimulator(testConfig())
	res, err := sim.Run(candles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	trade := res.Trades[0]
	if trade.Direction != model.DirectionLong {
		t.Errorf("expected a long trade, got %s", trade.Direction)
	}
	if trade.ExitReason != model.ExitStopLoss {
		t.Errorf("expected STOP_LOSS exit, got %s", trade.ExitReason)
	}
	// Indicators become defined at bar 5, so that bar's close is the entry.
	if trade.EntryPrice != 100.25 {
		t.Errorf("expected entry at 100.25, got %g", trade.EntryPrice)
	}
	if trade.ExitPrice != 99.0 {
		t.Errorf("expected exit at 99.0, got %g", trade.ExitPrice)
	}
	if trade.PnL >= 0 {
		t.Errorf("stop-loss trade should lose money, got PnL %g", trade.PnL)
	}

	wantFinal := 100000 + trade.PnL
	if res.Metrics.FinalCapital != wantFinal {
		t.Errorf("final capital = %g, want %g", res.Metrics.FinalCapital, wantFinal)
	}
}

func TestRun_ForcedExitAtEndOfData(t *testing.T) {
	cfg := testConfig()
	// Exits that never trigger, so the open long survives to the last bar.
	cfg.Risk.StopLossPercent = 100
	cfg.Risk.TakeProfitPercent = 100

	candles := barSeries(risingCloses(12))
	res, err := newTestSimulator(cfg).Run(candles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	trade := res.Trades[0]
	if trade.ExitReason != model.ExitEndOfData {
		t.Errorf("expected END_OF_DATA exit, got %s", trade.ExitReason)
	}
	if !trade.ExitTime.Equal(candles[len(candles)-1].Time) {
		t.Errorf("forced exit should land on the last bar, got %s", trade.ExitTime)
	}
	if trade.PnL <= 0 {
		t.Errorf("uptrend long should profit, got PnL %g", trade.PnL)
	}
}

func TestRun_NoSignalsMeansNoTrades(t *testing.T) {
	cfg := testConfig()
	// A delta the synthetic path can never reach on a gentle trend.
	cfg.Thresholds.Delta = 0.94

	candles := barSeries(risingCloses(20))
	res, err := newTestSimulator(cfg).Run(candles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(res.Trades))
	}
	if res.Metrics.FinalCapital != cfg.Backtest.InitialCapital {
		t.Errorf("capital should be unchanged, got %g", res.Metrics.FinalCapital)
	}
	if res.Metrics.ProfitFactor != 0 {
		t.Errorf("profit factor with no trades should be 0, got %g", res.Metrics.ProfitFactor)
	}
	// Seed point plus one per replayed bar.
	if len(res.EquityCurve) != len(candles) {
		t.Errorf("equity curve length = %d, want %d", len(res.EquityCurve), len(candles))
	}
}

func TestRun_SkipsBarsOutsideTradingHours(t *testing.T) {
	candles := barSeries(risingCloses(8))
	// Tack on an after-hours bar with a crash; it must be ignored entirely.
	candles = append(candles, model.Candle{
		Time: time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC),
		Open: 50, High: 50, Low: 50, Close: 50,
	})

	cfg := testConfig()
	cfg.Risk.StopLossPercent = 100
	cfg.Risk.TakeProfitPercent = 100
	res, err := newTestSimulator(cfg).Run(candles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, p := range res.EquityCurve {
		if p.Time.Hour() >= 16 {
			t.Errorf("equity point recorded outside the window at %s", p.Time)
		}
	}
	// The force-close still happens on the final candle, after-hours or not.
	if len(res.Trades) == 1 && res.Trades[0].ExitReason != model.ExitEndOfData {
		t.Errorf("expected END_OF_DATA, got %s", res.Trades[0].ExitReason)
	}
}

func TestRun_Deterministic(t *testing.T) {
	closes := risingCloses(10)
	closes = append(closes, 99.0, 99.3, 99.6)
	candles := barSeries(closes)
	cfg := testConfig()

	first, err := newTestSimulator(cfg).Run(candles)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := newTestSimulator(cfg).Run(candles)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs and seed should reproduce the run exactly")
	}
}

func TestRun_RejectsMalformedInput(t *testing.T) {
	sim := newTestSimulator(testConfig())
	base := barSeries(risingCloses(6))

	nanPrice := barSeries(risingCloses(6))
	nanPrice[3].Close = math.NaN()

	backwards := barSeries(risingCloses(6))
	backwards[4].Time = backwards[2].Time

	for _, tt := range []struct {
		name    string
		candles []model.Candle
	}{
		{"empty", nil},
		{"single candle", base[:1]},
		{"nan price", nanPrice},
		{"non-monotonic timestamps", backwards},
	} {
		if _, err := sim.Run(tt.candles); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}
