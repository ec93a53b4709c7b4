package testutil

import (
	"context"
	"strings"
	"testing"

	"papertrade/internal/money"
	"papertrade/internal/quote"
)

// StaticOracle serves fixed quotes by symbol, bypassing the network.
type StaticOracle struct {
	Quotes map[string]quote.Quote
}

// GetQuote returns the configured quote for the symbol, or ErrUnavailable.
func (o *StaticOracle) GetQuote(_ context.Context, symbol string) (*quote.Quote, error) {
	q, ok := o.Quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, quote.ErrUnavailable
	}
	return &q, nil
}

// NewStaticOracle builds a StaticOracle from symbol -> price text. Company
// names are derived from the symbol.
func NewStaticOracle(t *testing.T, prices map[string]string) *StaticOracle {
	t.Helper()

	quotes := make(map[string]quote.Quote, len(prices))
	for symbol, price := range prices {
		upper := strings.ToUpper(symbol)
		m, err := money.Parse(price)
		if err != nil {
			t.Fatalf("failed to parse quote price %q: %v", price, err)
		}
		quotes[upper] = quote.Quote{Symbol: upper, Name: upper + " Inc", Price: m}
	}
	return &StaticOracle{Quotes: quotes}
}

// UnavailableOracle fails every lookup, simulating an oracle outage.
type UnavailableOracle struct{}

// GetQuote always returns ErrUnavailable.
func (UnavailableOracle) GetQuote(context.Context, string) (*quote.Quote, error) {
	return nil, quote.ErrUnavailable
}
