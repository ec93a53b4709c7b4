package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"papertrade/internal/money"
)

const iexDefaultBaseURL = "https://api.iextrading.com/1.0"

// iexQuoteResponse is the relevant subset of the IEX quote endpoint payload.
type iexQuoteResponse struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LatestPrice float64 `json:"latestPrice"`
}

// IEXProvider fetches quotes from the IEX trading API.
type IEXProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewIEXProvider creates a new IEX quote provider. An empty baseURL selects
// the public endpoint.
func NewIEXProvider(httpClient *http.Client, baseURL string) *IEXProvider {
	if baseURL == "" {
		baseURL = iexDefaultBaseURL
	}
	return &IEXProvider{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the provider's display name.
func (p *IEXProvider) Name() string { return "IEX" }

// Fetch requests /stock/{symbol}/quote and converts the JSON payload.
func (p *IEXProvider) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/quote", p.baseURL, url.PathEscape(symbol))

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

	var payload iexQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	price := money.FromFloat(payload.LatestPrice)
	if !price.IsPositive() {
		return nil, ErrUnavailable
	}

	return &Quote{
		Symbol: strings.ToUpper(payload.Symbol),
		Name:   payload.CompanyName,
		Price:  price,
	}, nil
}
