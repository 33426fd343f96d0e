package broker

import (
	"context"
	"time"

	"OptionSentinel/internal/model"
)

// MockGateway returns controllable fixed data for development and testing.
type MockGateway struct {
	Candles    []model.Candle
	Positions  []BrokerPosition
	CandlesErr error
	OrderErr   error
	Orders     []OrderRequest
	NextOrder  string
}

func (m *MockGateway) FetchHistoricalCandles(_ context.Context, _, _, _ string, _, _ time.Time) ([]model.Candle, error) {
	if m.CandlesErr != nil {
		return nil, m.CandlesErr
	}
	return m.Candles, nil
}

func (m *MockGateway) SubmitOrder(_ context.Context, req OrderRequest) (string, error) {
	if m.OrderErr != nil {
		return "", m.OrderErr
	}
	m.Orders = append(m.Orders, req)
	if m.NextOrder != "" {
		return m.NextOrder, nil
	}
	return "mock-order-1", nil
}

func (m *MockGateway) FetchOpenPositions(_ context.Context) ([]BrokerPosition, error) {
	return m.Positions, nil
}

// MockGreeksSource serves a fixed snapshot.
type MockGreeksSource struct {
	Snapshot *model.GreeksSnapshot
	Err      error
}

func (m *MockGreeksSource) FetchGreeksSnapshot(_ context.Context, _, _ string, _ float64) (*model.GreeksSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Snapshot, nil
}

func (m *MockGreeksSource) Name() string { return "mock" }
