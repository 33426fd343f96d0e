package calculator

import (
	"errors"
	"math"
)

// SMA computes the trailing simple moving average over the given period.
// The first period-1 entries are NaN.
func SMA(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}

	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}
