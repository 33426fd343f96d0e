package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.DataSource.Symbol = "NIFTY"
	cfg.DataSource.Exchange = "NSE"
	cfg.DataSource.Interval = "FIFTEEN_MINUTE"
	cfg.DataSource.HistoryDays = 5
	cfg.Indicators.RSIPeriod = 5
	cfg.Indicators.MAPeriod = 5
	return cfg
}

func testCandles(n int) []model.Candle {
	start := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	candles := make([]model.Candle, n)
	for i := range candles {
		c := 100 + float64(i)
		candles[i] = model.Candle{Time: start.Add(time.Duration(i) * 15 * time.Minute), Open: c, High: c, Low: c, Close: c}
	}
	return candles
}

func TestCollect_AssemblesView(t *testing.T) {
	snap := &model.GreeksSnapshot{VolatilityIndex: 16.2}
	col := NewCollector(
		&broker.MockGateway{Candles: testCandles(10)},
		&broker.MockGreeksSource{Snapshot: snap},
		testConfig(),
	)

	view, err := col.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if view.Greeks != snap {
		t.Error("greeks snapshot not carried through")
	}
	if len(view.Series.Candles) != 10 {
		t.Errorf("series has %d candles, want 10", len(view.Series.Candles))
	}
	if _, _, _, ok := view.Series.Latest(); !ok {
		t.Error("latest bar should be available")
	}
	if view.FetchedAt.IsZero() {
		t.Error("FetchedAt not stamped")
	}
}

func TestCollect_PropagatesDataUnavailable(t *testing.T) {
	col := NewCollector(
		&broker.MockGateway{CandlesErr: broker.ErrDataUnavailable},
		&broker.MockGreeksSource{},
		testConfig(),
	)
	if _, err := col.Collect(context.Background()); !errors.Is(err, broker.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}

	col = NewCollector(
		&broker.MockGateway{Candles: testCandles(10)},
		&broker.MockGreeksSource{Err: broker.ErrDataUnavailable},
		testConfig(),
	)
	if _, err := col.Collect(context.Background()); !errors.Is(err, broker.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable from greeks source, got %v", err)
	}
}

func chainFixture() optionChain {
	var chain optionChain
	chain.Records.ExpiryDates = []string{"04-Jan-2024", "11-Jan-2024"}
	chain.Records.UnderlyingValue = 21530
	chain.Records.Data = []chainEntry{
		{StrikePrice: 21400, ExpiryDate: "04-Jan-2024", CE: &optionLeg{Delta: 0.7}, PE: &optionLeg{Delta: -0.3}},
		{StrikePrice: 21500, ExpiryDate: "04-Jan-2024", CE: &optionLeg{Delta: 0.55}, PE: &optionLeg{Delta: -0.45}},
		{StrikePrice: 21600, ExpiryDate: "04-Jan-2024", CE: &optionLeg{Delta: 0.4}, PE: &optionLeg{Delta: -0.6}},
		{StrikePrice: 21500, ExpiryDate: "11-Jan-2024", CE: &optionLeg{Delta: 0.52}, PE: &optionLeg{Delta: -0.48}},
	}
	return chain
}

func TestSelectEntry_NearestATM(t *testing.T) {
	entry, err := selectEntry(chainFixture(), "04-Jan-2024", 0)
	if err != nil {
		t.Fatalf("selectEntry: %v", err)
	}
	if entry.StrikePrice != 21500 {
		t.Errorf("nearest-ATM strike = %g, want 21500", entry.StrikePrice)
	}
	if entry.CE.Delta != 0.55 {
		t.Errorf("wrong entry picked: CE delta %g", entry.CE.Delta)
	}
}

func TestSelectEntry_ExplicitStrike(t *testing.T) {
	entry, err := selectEntry(chainFixture(), "04-Jan-2024", 21600)
	if err != nil {
		t.Fatalf("selectEntry: %v", err)
	}
	if entry.StrikePrice != 21600 {
		t.Errorf("strike = %g, want 21600", entry.StrikePrice)
	}
}

func TestSelectEntry_FiltersByExpiry(t *testing.T) {
	entry, err := selectEntry(chainFixture(), "11-Jan-2024", 0)
	if err != nil {
		t.Fatalf("selectEntry: %v", err)
	}
	if entry.CE.Delta != 0.52 {
		t.Errorf("entry from the wrong expiry: CE delta %g", entry.CE.Delta)
	}
}

func TestSelectEntry_NoMatchIsDataUnavailable(t *testing.T) {
	if _, err := selectEntry(chainFixture(), "18-Jan-2024", 0); !errors.Is(err, broker.ErrDataUnavailable) {
		t.Errorf("missing expiry: expected ErrDataUnavailable, got %v", err)
	}
	if _, err := selectEntry(chainFixture(), "04-Jan-2024", 99999); !errors.Is(err, broker.ErrDataUnavailable) {
		t.Errorf("missing strike: expected ErrDataUnavailable, got %v", err)
	}
}

func TestLegQuote_MapsAllFields(t *testing.T) {
	leg := &optionLeg{Delta: 0.6, Gamma: 0.12, Theta: -0.08, Vega: 0.2, ImpliedVolatility: 14.1, LastPrice: 152.4, ChangeInOI: 1200, Volume: 98000}
	q := legQuote(leg)
	want := model.OptionQuote{Delta: 0.6, Gamma: 0.12, Theta: -0.08, Vega: 0.2, ImpliedVol: 14.1, LastPrice: 152.4, ChangeInOI: 1200, Volume: 98000}
	if q != want {
		t.Errorf("legQuote = %+v, want %+v", q, want)
	}
}
