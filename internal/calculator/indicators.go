package calculator

import (
	"fmt"
	"math"

	"OptionSentinel/internal/model"
)

// IndicatorSeries carries the candles with their derived indicator columns.
// RSI and MA are aligned with Candles; entries are NaN until enough history
// exists for the respective period.
type IndicatorSeries struct {
	Candles []model.Candle
	RSI     []float64
	MA      []float64
}

// At returns the rsi/ma pair for the bar at index i.
func (s *IndicatorSeries) At(i int) (rsi, ma float64) {
	return s.RSI[i], s.MA[i]
}

// Latest returns the last candle with its indicators, and false when the
// series is empty.
func (s *IndicatorSeries) Latest() (candle model.Candle, rsi, ma float64, ok bool) {
	n := len(s.Candles)
	if n == 0 {
		return model.Candle{}, math.NaN(), math.NaN(), false
	}
	return s.Candles[n-1], s.RSI[n-1], s.MA[n-1], true
}

// Annotate computes RSI and SMA columns for the candle sequence. Pure and
// deterministic; the input candles are not modified.
func Annotate(candles []model.Candle, rsiPeriod, maPeriod int) (*IndicatorSeries, error) {
	closes := model.Closes(candles)

	rsi, err := RSI(closes, rsiPeriod)
	if err != nil {
		return nil, fmt.Errorf("compute rsi: %w", err)
	}
	ma, err := SMA(closes, maPeriod)
	if err != nil {
		return nil, fmt.Errorf("compute sma: %w", err)
	}

	return &IndicatorSeries{Candles: candles, RSI: rsi, MA: ma}, nil
}
