package recorder

import (
	"time"

	"OptionSentinel/internal/model"
)

// BacktestRun holds everything worth persisting from one backtest.
type BacktestRun struct {
	Symbol     string
	Interval   string
	StartedAt  time.Time
	FinishedAt time.Time
	Metrics    model.PerformanceMetrics
	Trades     []model.Trade
	Equity     []model.EquityPoint
}

// Recorder persists backtest runs and live signal events for later analysis.
type Recorder interface {
	RecordBacktest(run *BacktestRun) (runID string, err error)
	RecordSignal(symbol string, evt *model.SignalEvent) error
	Close() error
}
