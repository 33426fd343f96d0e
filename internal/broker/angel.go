package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"OptionSentinel/internal/model"

	"github.com/google/uuid"
)

// AngelGateway implements Gateway against the Angel One SmartAPI REST
// endpoints. It expects a pre-issued session token; the login/TOTP flow is
// outside this module.
type AngelGateway struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAngelGateway creates a gateway with optional proxy support.
func NewAngelGateway(baseURL, apiKey, proxyURL string) *AngelGateway {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AngelGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// candleResponse is the SmartAPI historical-data shape: each row is
// [timestamp, open, high, low, close, volume] with an RFC3339 timestamp.
type candleResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    [][]interface{} `json:"data"`
}

func (g *AngelGateway) FetchHistoricalCandles(ctx context.Context, symbol, exchange, interval string, from, to time.Time) ([]model.Candle, error) {
	payload := map[string]string{
		"symboltoken": symbol,
		"exchange":    exchange,
		"interval":    interval,
		"fromdate":    from.Format("2006-01-02 15:04"),
		"todate":      to.Format("2006-01-02 15:04"),
	}
	var resp candleResponse
	if err := g.post(ctx, "/rest/secure/angelbroking/historical/v1/getCandleData", payload, &resp); err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	if !resp.Status || len(resp.Data) == 0 {
		return nil, fmt.Errorf("fetch candles for %s: %s: %w", symbol, resp.Message, ErrDataUnavailable)
	}

	bars := make([]model.Candle, 0, len(resp.Data))
	for _, row := range resp.Data {
		if len(row) < 6 {
			continue
		}
		ts, ok := row[0].(string)
		if !ok {
			continue
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		bars = append(bars, model.Candle{
			Time:   t,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: toFloat(row[5]),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch candles for %s: no parseable rows: %w", symbol, ErrDataUnavailable)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (g *AngelGateway) SubmitOrder(ctx context.Context, req OrderRequest) (string, error) {
	ordertype := "MARKET"
	if req.Price > 0 {
		ordertype = "LIMIT"
	}
	payload := map[string]interface{}{
		"transactiontype": string(req.Direction),
		"tradingsymbol":   req.Symbol,
		"exchange":        req.Exchange,
		"quantity":        req.Quantity,
		"ordertype":       ordertype,
		"price":           req.Price,
		"producttype":     "INTRADAY",
		"duration":        "DAY",
		"ordertag":        uuid.NewString(),
	}
	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			OrderID string `json:"orderid"`
		} `json:"data"`
	}
	if err := g.post(ctx, "/rest/secure/angelbroking/order/v1/placeOrder", payload, &resp); err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	if !resp.Status || resp.Data.OrderID == "" {
		return "", fmt.Errorf("submit %s %s x%d: %s: %w",
			req.Direction, req.Symbol, req.Quantity, resp.Message, ErrOrderRejected)
	}
	return resp.Data.OrderID, nil
}

func (g *AngelGateway) FetchOpenPositions(ctx context.Context) ([]BrokerPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/rest/secure/angelbroking/order/v1/getPosition", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch positions: status %d, body: %s", resp.StatusCode, string(body))
	}
	var result struct {
		Status bool `json:"status"`
		Data   []struct {
			TradingSymbol string  `json:"tradingsymbol"`
			Exchange      string  `json:"exchange"`
			NetQty        int     `json:"netqty,string"`
			AvgPrice      float64 `json:"netprice,string"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	positions := make([]BrokerPosition, 0, len(result.Data))
	for _, p := range result.Data {
		positions = append(positions, BrokerPosition{
			Symbol:   p.TradingSymbol,
			Exchange: p.Exchange,
			NetQty:   p.NetQty,
			AvgPrice: p.AvgPrice,
		})
	}
	return positions, nil
}

func (g *AngelGateway) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
