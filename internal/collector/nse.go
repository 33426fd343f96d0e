package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/model"
)

const nseBaseURL = "https://www.nseindia.com"

// NSEGreeksSource implements broker.GreeksSource by reading the NSE
// option-chain and market-status endpoints. NSE requires the session
// cookies issued by the landing page, so the client carries a cookie jar
// primed on first use.
type NSEGreeksSource struct {
	Client *http.Client
	primed bool
}

// NewNSEGreeksSource creates a source with optional proxy support.
func NewNSEGreeksSource(proxyURL string) *NSEGreeksSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	jar, _ := cookiejar.New(nil)
	return &NSEGreeksSource{
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
			Jar:       jar,
		},
	}
}

func (f *NSEGreeksSource) Name() string { return "nse" }

// optionChain is the subset of the NSE option-chain response the core needs.
type optionChain struct {
	Records struct {
		ExpiryDates     []string     `json:"expiryDates"`
		UnderlyingValue float64      `json:"underlyingValue"`
		Data            []chainEntry `json:"data"`
	} `json:"records"`
}

type chainEntry struct {
	StrikePrice float64    `json:"strikePrice"`
	ExpiryDate  string     `json:"expiryDate"`
	CE          *optionLeg `json:"CE"`
	PE          *optionLeg `json:"PE"`
}

type optionLeg struct {
	Delta             float64 `json:"delta"`
	Gamma             float64 `json:"gamma"`
	Theta             float64 `json:"theta"`
	Vega              float64 `json:"vega"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	LastPrice         float64 `json:"lastPrice"`
	ChangeInOI        float64 `json:"changeinOpenInterest"`
	Volume            float64 `json:"totalTradedVolume"`
}

// FetchGreeksSnapshot fetches the option chain, picks the requested (or
// nearest) expiry and the requested (or nearest-ATM) strike, and attaches
// the India VIX reading. Scrape or parse failures map to ErrDataUnavailable.
func (f *NSEGreeksSource) FetchGreeksSnapshot(ctx context.Context, symbol, expiry string, strike float64) (*model.GreeksSnapshot, error) {
	var chain optionChain
	if err := f.getJSON(ctx, fmt.Sprintf("%s/api/option-chain-indices?symbol=%s", nseBaseURL, url.QueryEscape(symbol)), &chain); err != nil {
		return nil, fmt.Errorf("fetch option chain for %s: %w: %w", symbol, err, broker.ErrDataUnavailable)
	}

	if expiry == "" {
		if len(chain.Records.ExpiryDates) == 0 {
			return nil, fmt.Errorf("option chain for %s has no expiry dates: %w", symbol, broker.ErrDataUnavailable)
		}
		expiry = chain.Records.ExpiryDates[0]
	}

	entry, err := selectEntry(chain, expiry, strike)
	if err != nil {
		return nil, err
	}

	snap := &model.GreeksSnapshot{
		StrikePrice: entry.StrikePrice,
		ExpiryDate:  entry.ExpiryDate,
	}
	if entry.CE != nil {
		snap.Call = legQuote(entry.CE)
	}
	if entry.PE != nil {
		snap.Put = legQuote(entry.PE)
	}

	vix, err := f.fetchIndiaVIX(ctx)
	if err != nil {
		return nil, err
	}
	snap.VolatilityIndex = vix
	return snap, nil
}

// selectEntry filters the chain by expiry, then by strike if given,
// otherwise takes the strike closest to the underlying value.
func selectEntry(chain optionChain, expiry string, strike float64) (chainEntry, error) {
	var best chainEntry
	bestDist := math.Inf(1)
	for _, e := range chain.Records.Data {
		if e.ExpiryDate != expiry {
			continue
		}
		if strike != 0 {
			if e.StrikePrice == strike {
				return e, nil
			}
			continue
		}
		if d := math.Abs(e.StrikePrice - chain.Records.UnderlyingValue); d < bestDist {
			bestDist = d
			best = e
		}
	}
	if math.IsInf(bestDist, 1) {
		return chainEntry{}, fmt.Errorf("no option chain entry for expiry %s strike %g: %w", expiry, strike, broker.ErrDataUnavailable)
	}
	return best, nil
}

func legQuote(leg *optionLeg) model.OptionQuote {
	return model.OptionQuote{
		Delta:      leg.Delta,
		Gamma:      leg.Gamma,
		Theta:      leg.Theta,
		Vega:       leg.Vega,
		ImpliedVol: leg.ImpliedVolatility,
		LastPrice:  leg.LastPrice,
		ChangeInOI: leg.ChangeInOI,
		Volume:     leg.Volume,
	}
}

func (f *NSEGreeksSource) fetchIndiaVIX(ctx context.Context) (float64, error) {
	var status struct {
		MarketState []struct {
			Index string  `json:"index"`
			Last  float64 `json:"last"`
		} `json:"marketState"`
	}
	if err := f.getJSON(ctx, nseBaseURL+"/api/marketStatus", &status); err != nil {
		return 0, fmt.Errorf("fetch india vix: %w: %w", err, broker.ErrDataUnavailable)
	}
	for _, s := range status.MarketState {
		if s.Index == "India VIX" {
			return s.Last, nil
		}
	}
	return 0, fmt.Errorf("india vix not present in market status: %w", broker.ErrDataUnavailable)
}

// prime hits the landing page once to collect the session cookies the API
// endpoints require.
func (f *NSEGreeksSource) prime(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nseBaseURL+"/", nil)
	if err != nil {
		return err
	}
	setBrowserHeaders(req)
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("prime cookies: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prime cookies: status %d", resp.StatusCode)
	}
	f.primed = true
	return nil
}

func (f *NSEGreeksSource) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if !f.primed {
		if err := f.prime(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	setBrowserHeaders(req)
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// Cookies may have expired; force a re-prime on the next call.
		f.primed = false
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
}
