package model

import "time"

// Direction of an open position. Sign returns the P&L multiplier.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionFlat  Direction = "FLAT"
)

// Sign maps LONG to +1, SHORT to -1, FLAT to 0.
func (d Direction) Sign() float64 {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	default:
		return 0
	}
}

// Position is the single open position tracked by the simulator.
type Position struct {
	Direction  Direction
	EntryPrice float64
	EntryTime  time.Time
}

// ExitReason records why a backtest position was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)

// Trade is an immutable record of one closed position.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Direction  Direction
	PnL        float64
	PnLPercent float64
	ExitReason ExitReason
}

// EquityPoint is the running account value at one evaluated bar,
// including unrealized P&L of any open position.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// PerformanceMetrics is derived wholesale from the trade and equity
// sequences, never updated incrementally.
type PerformanceMetrics struct {
	InitialCapital     float64
	FinalCapital       float64
	TotalReturnPercent float64
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
	WinRate            float64
	AvgProfit          float64
	AvgLoss            float64
	ProfitFactor       float64
	MaxDrawdownPercent float64
	SharpeRatio        float64
}
