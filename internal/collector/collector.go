package collector

import (
	"context"
	"fmt"
	"time"

	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/calculator"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
)

// MarketView is one consistent read of the market: annotated candles plus
// the latest Greeks snapshot.
type MarketView struct {
	Series    *calculator.IndicatorSeries
	Greeks    *model.GreeksSnapshot
	FetchedAt time.Time
}

// Collector fetches candles and Greeks and computes indicator columns for
// the live signal loop.
type Collector struct {
	Gateway broker.Gateway
	Greeks  broker.GreeksSource
	Cfg     *config.Config
}

// NewCollector creates a new Collector.
func NewCollector(gw broker.Gateway, gs broker.GreeksSource, cfg *config.Config) *Collector {
	return &Collector{Gateway: gw, Greeks: gs, Cfg: cfg}
}

// Collect fetches everything the engine needs for one evaluation. All I/O
// happens here, upfront; the evaluation itself is pure.
func (c *Collector) Collect(ctx context.Context) (*MarketView, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -c.Cfg.DataSource.HistoryDays)

	candles, err := c.Gateway.FetchHistoricalCandles(ctx,
		c.Cfg.DataSource.Symbol, c.Cfg.DataSource.Exchange, c.Cfg.DataSource.Interval, from, now)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	series, err := calculator.Annotate(candles, c.Cfg.Indicators.RSIPeriod, c.Cfg.Indicators.MAPeriod)
	if err != nil {
		return nil, fmt.Errorf("annotate candles: %w", err)
	}

	greeks, err := c.Greeks.FetchGreeksSnapshot(ctx, c.Cfg.DataSource.Symbol, "", 0)
	if err != nil {
		return nil, fmt.Errorf("fetch greeks: %w", err)
	}

	return &MarketView{Series: series, Greeks: greeks, FetchedAt: now}, nil
}
