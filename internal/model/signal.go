package model

import "time"

// Signal is the ternary verdict of the signal engine.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalNone Signal = "NONE"
)

// Actionable reports whether the signal calls for an order.
func (s Signal) Actionable() bool { return s == SignalBuy || s == SignalSell }

// SignalEvent is one recorded signal with the bar it fired on.
type SignalEvent struct {
	Signal Signal
	Time   time.Time
	Price  float64
}
