package calculator

import (
	"math"
	"testing"
)

func TestSMA_UndefinedUntilPeriodMinusOne(t *testing.T) {
	closes := []float64{10, 20, 30, 40, 50}
	ma, err := SMA(closes, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(ma[0]) || !math.IsNaN(ma[1]) {
		t.Errorf("first period-1 values should be NaN, got %v", ma[:2])
	}
	want := []float64{20, 30, 40}
	for i, w := range want {
		if got := ma[i+2]; math.Abs(got-w) > 1e-9 {
			t.Errorf("ma[%d] = %f, want %f", i+2, got, w)
		}
	}
}

func TestSMA_ShorterThanPeriod(t *testing.T) {
	ma, err := SMA([]float64{1, 2}, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range ma {
		if !math.IsNaN(v) {
			t.Errorf("ma[%d] should be NaN for short input, got %f", i, v)
		}
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	if _, err := SMA([]float64{1, 2, 3}, 0); err == nil {
		t.Error("expected error for period 0")
	}
}
