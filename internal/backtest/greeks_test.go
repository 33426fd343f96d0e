package backtest

import (
	"math"
	"reflect"
	"testing"
)

func TestSyntheticGreeksPath_Deterministic(t *testing.T) {
	candles := barSeries(risingCloses(30))
	first := SyntheticGreeksPath(candles, 7)
	second := SyntheticGreeksPath(candles, 7)
	if !reflect.DeepEqual(first, second) {
		t.Error("same candles and seed must reproduce the same path")
	}

	other := SyntheticGreeksPath(candles, 8)
	if reflect.DeepEqual(first, other) {
		t.Error("a different seed should move the volatility walk")
	}
}

func TestSyntheticGreeksPath_StaysInBounds(t *testing.T) {
	// Violent swings to push every clamp.
	closes := []float64{100}
	for i := 1; i < 60; i++ {
		if i%2 == 0 {
			closes = append(closes, closes[i-1]*1.5)
		} else {
			closes = append(closes, closes[i-1]*0.6)
		}
	}
	path := SyntheticGreeksPath(barSeries(closes), 1)

	for i, g := range path {
		if g.Call.Delta < 0.05 || g.Call.Delta > 0.95 {
			t.Fatalf("bar %d: call delta %g outside [0.05, 0.95]", i, g.Call.Delta)
		}
		if g.Put.Delta < -0.95 || g.Put.Delta > -0.05 {
			t.Fatalf("bar %d: put delta %g outside [-0.95, -0.05]", i, g.Put.Delta)
		}
		if g.Call.Gamma < 0.01 {
			t.Fatalf("bar %d: gamma %g below floor", i, g.Call.Gamma)
		}
		if g.VolatilityIndex < vixFloor || g.VolatilityIndex > vixCeil {
			t.Fatalf("bar %d: vix %g outside [%g, %g]", i, g.VolatilityIndex, vixFloor, vixCeil)
		}
	}
}

func TestSyntheticGreeksPath_DecayAndDrift(t *testing.T) {
	candles := barSeries(risingCloses(20))
	path := SyntheticGreeksPath(candles, 42)

	if len(path) != len(candles) {
		t.Fatalf("path length %d, want %d", len(path), len(candles))
	}
	first, last := path[0], path[len(path)-1]

	if first.Call.Delta != baseCallDelta || first.VolatilityIndex != baseVIX {
		t.Errorf("first snapshot should carry base values, got delta %g vix %g", first.Call.Delta, first.VolatilityIndex)
	}
	if last.Call.Delta <= first.Call.Delta {
		t.Errorf("an uptrend should push call delta up: %g -> %g", first.Call.Delta, last.Call.Delta)
	}
	if last.Call.Theta >= first.Call.Theta {
		t.Errorf("theta should decay more negative: %g -> %g", first.Call.Theta, last.Call.Theta)
	}
	if last.Call.Vega >= first.Call.Vega {
		t.Errorf("vega should shrink: %g -> %g", first.Call.Vega, last.Call.Vega)
	}
	if first.StrikePrice != 100 {
		t.Errorf("strike should snap to the 50-point grid, got %g", first.StrikePrice)
	}
}

func TestSyntheticGreeksPath_Empty(t *testing.T) {
	if path := SyntheticGreeksPath(nil, 0); len(path) != 0 {
		t.Errorf("empty input should yield an empty path, got %d snapshots", len(path))
	}
}

func TestNearestStrike(t *testing.T) {
	for _, tt := range []struct{ price, want float64 }{
		{21480, 21500},
		{21524, 21500},
		{21526, 21550},
		{21475, 21500},
	} {
		if got := nearestStrike(tt.price); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("nearestStrike(%g) = %g, want %g", tt.price, got, tt.want)
		}
	}
}
