package quote

import (
	"context"

	"papertrade/internal/logger"
)

// ChainOracle tries a list of providers in order and returns the first
// successful quote. Which providers back the chain is invisible to callers.
type ChainOracle struct {
	providers []Provider
}

// NewChainOracle creates an oracle backed by the given providers, consulted
// in the order supplied.
func NewChainOracle(providers ...Provider) *ChainOracle {
	return &ChainOracle{providers: providers}
}

// GetQuote screens the symbol locally, then asks each provider in turn.
// All misses collapse into ErrUnavailable.
func (o *ChainOracle) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if !ScreenSymbol(symbol) {
		return nil, ErrUnavailable
	}

	for _, p := range o.providers {
		q, err := p.Fetch(ctx, symbol)
		if err == nil {
			return q, nil
		}
		if ctx.Err() != nil {
			// The caller's deadline expired; later providers would only
			// fail the same way.
			logger.Get().Debugw("quote lookup timed out", "symbol", symbol, "provider", p.Name())
			return nil, ErrUnavailable
		}
		logger.Get().Debugw("quote provider miss", "symbol", symbol, "provider", p.Name(), "error", err)
	}

	return nil, ErrUnavailable
}
