package broker

import (
	"context"
	"errors"
	"time"

	"OptionSentinel/internal/model"
)

// ErrDataUnavailable marks missing or insufficient upstream data. Callers
// recover locally (skip the evaluation, return NONE) rather than propagate.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrOrderRejected marks an order the broker refused. The core never
// retries; retry policy belongs to the execution layer.
var ErrOrderRejected = errors.New("order rejected")

// OrderRequest describes one order submission.
type OrderRequest struct {
	Direction model.Signal // BUY or SELL
	Symbol    string
	Exchange  string
	Quantity  int
	Price     float64 // 0 means market order
}

// BrokerPosition is an open position as reported by the brokerage session.
type BrokerPosition struct {
	Symbol   string
	Exchange string
	NetQty   int
	AvgPrice float64
}

// Gateway is the brokerage contract the signal loop and backtester consume.
// Implementations wrap an authenticated broker session.
type Gateway interface {
	FetchHistoricalCandles(ctx context.Context, symbol, exchange, interval string, from, to time.Time) ([]model.Candle, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (orderID string, err error)
	FetchOpenPositions(ctx context.Context) ([]BrokerPosition, error)
}

// GreeksSource fetches the current option-Greeks snapshot for a symbol.
// Empty expiry selects the nearest expiry; zero strike selects nearest-ATM.
type GreeksSource interface {
	FetchGreeksSnapshot(ctx context.Context, symbol, expiry string, strike float64) (*model.GreeksSnapshot, error)
	Name() string
}
