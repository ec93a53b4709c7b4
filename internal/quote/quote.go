// Package quote defines the price-oracle contract and its providers.
// The engine treats the oracle as an external collaborator: a miss is a
// recoverable lookup failure, never a fatal error.
package quote

import (
	"context"
	"errors"
	"strings"

	"papertrade/internal/money"
)

// ErrUnavailable is returned when no provider can produce a quote for a
// symbol. Callers must treat it as a user-facing validation failure.
var ErrUnavailable = errors.New("quote unavailable")

// Quote is the oracle's answer for one symbol.
type Quote struct {
	Symbol string      // canonical uppercase ticker
	Name   string      // company display name
	Price  money.Money // per-share price, always > 0
}

// Oracle looks up the current market quote for a symbol.
type Oracle interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// Provider fetches a quote for a single symbol from one data source.
type Provider interface {
	// Name returns the provider's display name (e.g., "IEX", "Alpha Vantage").
	Name() string

	// Fetch returns the quote, or ErrUnavailable when the source has no
	// usable price for the symbol.
	Fetch(ctx context.Context, symbol string) (*Quote, error)
}

// ScreenSymbol reports whether a symbol is worth a remote call. Symbols
// containing a comma or starting with the index marker "^" are rejected
// locally.
func ScreenSymbol(symbol string) bool {
	if symbol == "" {
		return false
	}
	if strings.HasPrefix(symbol, "^") {
		return false
	}
	if strings.Contains(symbol, ",") {
		return false
	}
	return true
}
