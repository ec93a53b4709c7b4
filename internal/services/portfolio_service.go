package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/money"
	"papertrade/internal/pagination"
	"papertrade/internal/quote"
)

// portfolioService implements the engine's read paths: portfolio valuation
// and transaction history. It never mutates the store.
type portfolioService struct {
	db           *gorm.DB
	ledger       LedgerServicer
	oracle       quote.Oracle
	quoteTimeout time.Duration
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, ledger LedgerServicer, oracle quote.Oracle, quoteTimeout time.Duration) PortfolioServicer {
	return &portfolioService{db: db, ledger: ledger, oracle: oracle, quoteTimeout: quoteTimeout}
}

// GetPortfolio values every holding at the current market price and totals
// them with the user's cash. When the oracle has no quote for a symbol, the
// price of the most recent transaction referencing that stock is used
// instead; a holding with no price at all is a data inconsistency and fails
// the whole valuation.
func (s *portfolioService) GetPortfolio(ctx context.Context, userID string) (*PortfolioSummary, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var holdings []models.Holding
	if err := s.db.Preload("Stock").Where("user_id = ?", userID).Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	summary := &PortfolioSummary{
		Rows:  make([]PortfolioRow, 0, len(holdings)),
		Cash:  user.Cash,
		Total: user.Cash,
	}

	for i := range holdings {
		h := &holdings[i]
		symbol := h.Stock.DisplaySymbol()

		price, err := s.priceFor(ctx, h.StockID, symbol)
		if err != nil {
			return nil, err
		}

		subtotal := price.MulInt(h.Quantity)
		summary.Rows = append(summary.Rows, PortfolioRow{
			Symbol:   symbol,
			Name:     h.Stock.Name,
			Quantity: h.Quantity,
			Price:    price,
			Subtotal: subtotal,
		})
		summary.Total = summary.Total.Add(subtotal)
	}

	return summary, nil
}

// priceFor resolves a holding's per-share price: live quote first, then the
// last recorded transaction price for the stock across all users.
func (s *portfolioService) priceFor(ctx context.Context, stockID, symbol string) (money.Money, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.quoteTimeout)
	defer cancel()

	q, err := s.oracle.GetQuote(lookupCtx, symbol)
	if err == nil {
		return q.Price, nil
	}

	price, found, err := s.ledger.LastKnownPrice(stockID)
	if err != nil {
		return money.Zero(), err
	}
	if !found {
		// A holding exists but no transaction ever recorded a price for
		// its stock. Surface it instead of valuing the row at zero.
		return money.Zero(), apperrors.WithMessage(apperrors.ErrStorage,
			"no price available for "+symbol)
	}
	return price, nil
}

// GetHistory returns the user's transactions, most recent first. Cash rows
// render with empty quantity and price text and a signed subtotal:
// withdrawals are negative.
func (s *portfolioService) GetHistory(userID string, page pagination.PageRequest) (*pagination.PageResponse[HistoryEntry], error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).
		Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var transactions []models.Transaction
	if err := s.db.Preload("Stock").Preload("Type").
		Where("user_id = ?", userID).
		Order("executed_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	entries := make([]HistoryEntry, 0, len(transactions))
	for i := range transactions {
		entries = append(entries, renderHistoryEntry(&transactions[i]))
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// renderHistoryEntry converts a stored transaction into its display row.
func renderHistoryEntry(t *models.Transaction) HistoryEntry {
	entry := HistoryEntry{
		Symbol:     t.Stock.DisplaySymbol(),
		Name:       t.Stock.Name,
		Type:       t.Type.Name,
		ExecutedAt: t.ExecutedAt,
	}

	if t.Type.Name == models.TransactionTypeCash {
		entry.Subtotal = t.Price
		if t.Stock.Name == models.CashStockWithdrawal {
			entry.Subtotal = t.Price.Neg()
		}
		return entry
	}

	entry.Quantity = strconv.FormatInt(t.Quantity, 10)
	entry.Price = t.Price.String()
	entry.Subtotal = t.Price.MulInt(t.Quantity)
	return entry
}
