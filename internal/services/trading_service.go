package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/logger"
	"papertrade/internal/models"
	"papertrade/internal/money"
	"papertrade/internal/quote"
)

// tradingService implements the mutating trading operations. Every mutation
// for a given user runs under that user's mutex, so two overlapping requests
// cannot race on cash or holdings, and applies its store writes inside a
// single database transaction.
type tradingService struct {
	db           *gorm.DB
	ledger       LedgerServicer
	users        UserServicer
	oracle       quote.Oracle
	quoteTimeout time.Duration

	// userLocks maps user ID to *sync.Mutex. Entries are created lazily
	// and never removed; one mutex per active user is cheap.
	userLocks sync.Map
}

// NewTradingService creates a new TradingServicer.
func NewTradingService(
	db *gorm.DB,
	ledger LedgerServicer,
	users UserServicer,
	oracle quote.Oracle,
	quoteTimeout time.Duration,
) TradingServicer {
	return &tradingService{
		db:           db,
		ledger:       ledger,
		users:        users,
		oracle:       oracle,
		quoteTimeout: quoteTimeout,
	}
}

// lockUser takes the per-user mutex and returns its unlock function.
func (s *tradingService) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// lookupQuote asks the oracle under the configured timeout. Any failure,
// including an expired deadline, is the recoverable "no quote" rejection.
func (s *tradingService) lookupQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.quoteTimeout)
	defer cancel()

	q, err := s.oracle.GetQuote(lookupCtx, symbol)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrNoQuote, "No quote available for "+symbol)
	}
	return q, nil
}

// Buy purchases shares of a stock at the current market price.
func (s *tradingService) Buy(ctx context.Context, userID, symbol string, shares int64) (*TradeConfirmation, error) {
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share count must be a positive whole number")
	}
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	q, err := s.lookupQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	cost := q.Price.MulInt(shares)
	if user.Cash.LessThan(cost) {
		return nil, apperrors.ErrInsufficientFunds
	}

	newCash := user.Cash.Sub(cost)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		stock, txErr := s.ledger.FindOrCreateStock(tx, q.Symbol, q.Name)
		if txErr != nil {
			return txErr
		}
		if _, txErr = s.ledger.AppendTransaction(tx, user.ID, stock.ID,
			models.TransactionTypeBuy, shares, q.Price, time.Now()); txErr != nil {
			return txErr
		}
		if txErr = s.ledger.UpsertHolding(tx, user.ID, stock.ID, shares); txErr != nil {
			return txErr
		}
		if txErr = tx.Model(user).Update("cash", newCash).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrStorage, txErr)
		}
		return nil
	})
	if err != nil {
		logger.Get().Errorw("buy failed", "user_id", userID, "symbol", q.Symbol, "error", err)
		return nil, err
	}

	logger.Get().Infow("buy executed",
		"user_id", userID, "symbol", q.Symbol, "shares", shares, "price", q.Price.String())

	return &TradeConfirmation{
		Symbol: q.Symbol,
		Name:   q.Name,
		Shares: shares,
		Price:  q.Price,
		Total:  cost,
		Cash:   newCash,
	}, nil
}

// Sell sells shares the user currently holds at the current market price.
// The share check comes before the quote lookup: a user selling shares they
// do not own should not trigger a remote call.
func (s *tradingService) Sell(ctx context.Context, userID, symbol string, shares int64) (*TradeConfirmation, error) {
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share count must be a positive whole number")
	}
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	stock, err := s.ledger.FindStockBySymbol(s.db, symbol)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, apperrors.ErrInsufficientShares
	}

	holding, err := s.ledger.FindHolding(s.db, user.ID, stock.ID)
	if err != nil {
		return nil, err
	}
	if holding == nil || holding.Quantity < shares {
		return nil, apperrors.ErrInsufficientShares
	}

	q, err := s.lookupQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	proceeds := q.Price.MulInt(shares)
	newCash := user.Cash.Add(proceeds)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, txErr := s.ledger.AppendTransaction(tx, user.ID, stock.ID,
			models.TransactionTypeSell, shares, q.Price, time.Now()); txErr != nil {
			return txErr
		}
		if txErr := s.ledger.UpsertHolding(tx, user.ID, stock.ID, -shares); txErr != nil {
			return txErr
		}
		if txErr := tx.Model(user).Update("cash", newCash).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrStorage, txErr)
		}
		return nil
	})
	if err != nil {
		logger.Get().Errorw("sell failed", "user_id", userID, "symbol", q.Symbol, "error", err)
		return nil, err
	}

	logger.Get().Infow("sell executed",
		"user_id", userID, "symbol", q.Symbol, "shares", shares, "price", q.Price.String())

	return &TradeConfirmation{
		Symbol: q.Symbol,
		Name:   q.Name,
		Shares: shares,
		Price:  q.Price,
		Total:  proceeds,
		Cash:   newCash,
	}, nil
}

// CashTransaction deposits or withdraws cash after re-verifying the user's
// password. The movement is logged as a CASH transaction against the
// matching synthetic stock row, with a zero quantity and the amount as the
// recorded price.
func (s *tradingService) CashTransaction(userID, amount string, isDeposit bool, password string) (*CashConfirmation, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if !s.users.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	m, err := money.Parse(amount)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "enter a valid amount of money")
	}
	if m.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "enter a non-zero amount of money")
	}

	if !isDeposit && user.Cash.LessThan(m) {
		return nil, apperrors.ErrInsufficientFunds
	}

	stockName := models.CashStockDeposit
	newCash := user.Cash.Add(m)
	if !isDeposit {
		stockName = models.CashStockWithdrawal
		newCash = user.Cash.Sub(m)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		stock, txErr := s.ledger.FindOrCreateCashStock(tx, stockName)
		if txErr != nil {
			return txErr
		}
		if _, txErr = s.ledger.AppendTransaction(tx, user.ID, stock.ID,
			models.TransactionTypeCash, 0, m, time.Now()); txErr != nil {
			return txErr
		}
		if txErr = tx.Model(user).Update("cash", newCash).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrStorage, txErr)
		}
		return nil
	})
	if err != nil {
		logger.Get().Errorw("cash transaction failed", "user_id", userID, "deposit", isDeposit, "error", err)
		return nil, err
	}

	logger.Get().Infow("cash transaction executed",
		"user_id", userID, "deposit", isDeposit, "amount", m.String())

	return &CashConfirmation{Amount: m, Cash: newCash}, nil
}

// DeleteAccount removes the user and everything they own after an explicit
// confirmation and a password check.
func (s *tradingService) DeleteAccount(userID, password string, confirmed bool) error {
	if !confirmed {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account deletion must be explicitly confirmed")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !s.users.VerifyPassword(user, password) {
		return apperrors.ErrInvalidCredentials
	}

	if err := s.ledger.DeleteUserCascade(user.ID); err != nil {
		logger.Get().Errorw("account deletion failed", "user_id", userID, "error", err)
		return err
	}

	logger.Get().Infow("account deleted", "user_id", userID)
	return nil
}
