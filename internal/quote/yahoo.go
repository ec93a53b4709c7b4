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

const yahooDefaultBaseURL = "http://download.finance.yahoo.com"

// YahooProvider fetches quotes from the Yahoo Finance CSV endpoint. The
// f=snl1 format yields one headerless row per symbol: symbol, name, last
// trade price.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewYahooProvider creates a new Yahoo quote provider. An empty baseURL
// selects the public endpoint.
func NewYahooProvider(httpClient *http.Client, baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooDefaultBaseURL
	}
	return &YahooProvider{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo" }

// Fetch requests /d/quotes.csv and reads the single quote row.
func (p *YahooProvider) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("f", "snl1")
	params.Set("s", symbol)

	endpoint := p.baseURL + "/d/quotes.csv?" + params.Encode()

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

	row, err := csv.NewReader(resp.Body).Read()
	if err != nil {
		return nil, fmt.Errorf("reading quote row: %w", err)
	}
	if len(row) < 3 {
		return nil, fmt.Errorf("malformed row with %d columns", len(row))
	}

	// An unknown symbol comes back with "N/A" in the price column.
	value, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return nil, ErrUnavailable
	}

	price := money.FromFloat(value)
	if !price.IsPositive() {
		return nil, ErrUnavailable
	}

	return &Quote{
		Symbol: strings.ToUpper(row[0]),
		Name:   row[1],
		Price:  price,
	}, nil
}
