package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"papertrade/internal/models"
	"papertrade/internal/money"
	"papertrade/internal/pagination"
)

// UserServicer defines the contract for registration and the credential gate.
type UserServicer interface {
	Register(username, password, confirmation string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	ChangePassword(userID, oldPassword, newPassword, confirmation string) error
}

// LedgerServicer defines the store operations over users, stocks, holdings
// and the append-only transaction log. Methods taking a *gorm.DB handle can
// run inside a caller-owned transaction so multi-step mutations commit or
// roll back as one unit.
type LedgerServicer interface {
	SeedTransactionTypes() error
	FindStockBySymbol(tx *gorm.DB, symbol string) (*models.Stock, error)
	FindOrCreateStock(tx *gorm.DB, symbol, name string) (*models.Stock, error)
	FindOrCreateCashStock(tx *gorm.DB, name string) (*models.Stock, error)
	FindHolding(tx *gorm.DB, userID, stockID string) (*models.Holding, error)
	UpsertHolding(tx *gorm.DB, userID, stockID string, delta int64) error
	AppendTransaction(tx *gorm.DB, userID, stockID, typeName string, quantity int64, price money.Money, at time.Time) (*models.Transaction, error)
	LastKnownPrice(stockID string) (money.Money, bool, error)
	DeleteUserCascade(userID string) error
}

// TradeConfirmation reports an executed buy or sell back to the caller.
type TradeConfirmation struct {
	Symbol string      `json:"symbol"`
	Name   string      `json:"name"`
	Shares int64       `json:"shares"`
	Price  money.Money `json:"price"`
	Total  money.Money `json:"total"`
	Cash   money.Money `json:"cash"`
}

// CashConfirmation reports an executed deposit or withdrawal.
type CashConfirmation struct {
	Amount money.Money `json:"amount"`
	Cash   money.Money `json:"cash"`
}

// TradingServicer defines the contract for the trading engine's mutating
// operations. Callers pass the acting user's identity explicitly; there is
// no ambient session state.
type TradingServicer interface {
	Buy(ctx context.Context, userID, symbol string, shares int64) (*TradeConfirmation, error)
	Sell(ctx context.Context, userID, symbol string, shares int64) (*TradeConfirmation, error)
	CashTransaction(userID, amount string, isDeposit bool, password string) (*CashConfirmation, error)
	DeleteAccount(userID, password string, confirmed bool) error
}

// PortfolioRow is one priced holding in a portfolio valuation.
type PortfolioRow struct {
	Symbol   string      `json:"symbol"`
	Name     string      `json:"name"`
	Quantity int64       `json:"quantity"`
	Price    money.Money `json:"price"`
	Subtotal money.Money `json:"subtotal"`
}

// PortfolioSummary is a full valuation: priced holdings, cash, and the total.
type PortfolioSummary struct {
	Rows  []PortfolioRow `json:"rows"`
	Cash  money.Money    `json:"cash"`
	Total money.Money    `json:"total"`
}

// HistoryEntry is one rendered row of a user's transaction history. Cash
// movements carry empty quantity/price text and a signed subtotal.
type HistoryEntry struct {
	Symbol     string      `json:"symbol"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Quantity   string      `json:"quantity"`
	Price      string      `json:"price"`
	Subtotal   money.Money `json:"subtotal"`
	ExecutedAt time.Time   `json:"executed_at"`
}

// PortfolioServicer defines the contract for the engine's read paths.
type PortfolioServicer interface {
	GetPortfolio(ctx context.Context, userID string) (*PortfolioSummary, error)
	GetHistory(userID string, page pagination.PageRequest) (*pagination.PageResponse[HistoryEntry], error)
}
