package calculator

import (
	"errors"
	"math"
)

// RSI computes the Relative Strength Index over the given period using
// simple rolling means of gains and losses (no exponential smoothing).
// The result has one entry per input close; the first `period` entries are
// NaN because the rolling windows are not yet full. Defined values are
// always in [0, 100].
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}

	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) <= period {
		return out, nil
	}

	// Rolling sums of close-to-close gains and losses over `period` deltas.
	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
		if i > period {
			old := closes[i-period] - closes[i-period-1]
			if old > 0 {
				gainSum -= old
			} else {
				lossSum += old
			}
		}
		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

// rsiValue guards the avgLoss==0 divide explicitly: all-gain windows
// saturate at 100, and a fully flat window (no gains, no losses) is
// neutral 50 rather than a NaN from 0/0.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
