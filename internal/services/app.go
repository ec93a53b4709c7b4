package services

import (
	"net/http"

	"gorm.io/gorm"

	"papertrade/internal/config"
	"papertrade/internal/quote"
)

// App bundles the fully wired service layer. Embedders construct it once
// from a database handle and the application config.
type App struct {
	Users     UserServicer
	Ledger    LedgerServicer
	Trading   TradingServicer
	Portfolio PortfolioServicer
	Oracle    quote.Oracle
}

// NewApp wires the services over the given database. The quote oracle chains
// the configured providers, IEX first, and every quote lookup runs under
// cfg.QuoteTimeout.
func NewApp(db *gorm.DB, cfg *config.Config) *App {
	client := &http.Client{Timeout: cfg.QuoteTimeout}
	oracle := quote.NewChainOracle(
		quote.NewIEXProvider(client, cfg.IEXBaseURL),
		quote.NewYahooProvider(client, cfg.YahooBaseURL),
		quote.NewAlphaVantageProvider(client, cfg.AlphaVantageBaseURL, cfg.AlphaVantageAPIKey),
	)

	ledger := NewLedgerService(db)
	users := NewUserService(db)

	return &App{
		Users:     users,
		Ledger:    ledger,
		Trading:   NewTradingService(db, ledger, users, oracle, cfg.QuoteTimeout),
		Portfolio: NewPortfolioService(db, ledger, oracle, cfg.QuoteTimeout),
		Oracle:    oracle,
	}
}
