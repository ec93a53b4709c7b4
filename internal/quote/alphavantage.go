package quote

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"papertrade/internal/money"
)

const alphaVantageDefaultBaseURL = "https://www.alphavantage.co"

// alphaVantageCloseColumn is the close-price column of the intraday CSV
// (timestamp, open, high, low, close, volume).
const alphaVantageCloseColumn = 4

// AlphaVantageProvider fetches quotes from the Alpha Vantage intraday CSV
// endpoint. It reports no company name, so the uppercased symbol stands in.
type AlphaVantageProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
}

// NewAlphaVantageProvider creates a new Alpha Vantage quote provider. An
// empty baseURL selects the public endpoint.
func NewAlphaVantageProvider(httpClient *http.Client, baseURL, apiKey string) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = alphaVantageDefaultBaseURL
	}
	return &AlphaVantageProvider{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the provider's display name.
func (p *AlphaVantageProvider) Name() string { return "Alpha Vantage" }

// Fetch requests the 1-minute intraday series as CSV and reads the most
// recent close price from the first data row.
func (p *AlphaVantageProvider) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("interval", "1min")
	params.Set("datatype", "csv")
	params.Set("symbol", symbol)
	params.Set("apikey", p.apiKey)

	endpoint := p.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)

	// Header row first, then the newest interval.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading data row: %w", err)
	}
	if len(row) <= alphaVantageCloseColumn {
		return nil, fmt.Errorf("malformed row with %d columns", len(row))
	}

	value, err := strconv.ParseFloat(row[alphaVantageCloseColumn], 64)
	if err != nil {
		return nil, ErrUnavailable
	}

	price := money.FromFloat(value)
	if !price.IsPositive() {
		return nil, ErrUnavailable
	}

	upper := strings.ToUpper(symbol)
	return &Quote{Symbol: upper, Name: upper, Price: price}, nil
}
