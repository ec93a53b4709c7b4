package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/money"
)

// ledgerService implements the store operations over the ledger tables.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// SeedTransactionTypes inserts the BUY, SELL and CASH enum rows if they are
// not already present. Safe to call on every startup.
func (s *ledgerService) SeedTransactionTypes() error {
	for _, name := range []string{
		models.TransactionTypeBuy,
		models.TransactionTypeSell,
		models.TransactionTypeCash,
	} {
		tt := models.TransactionType{Name: name}
		if err := s.db.Where("name = ?", name).FirstOrCreate(&tt).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	return nil
}

// FindStockBySymbol returns the stock for an uppercase-canonicalized symbol,
// or nil when no such stock exists.
func (s *ledgerService) FindStockBySymbol(tx *gorm.DB, symbol string) (*models.Stock, error) {
	var stock models.Stock
	if err := tx.Where("symbol = ?", strings.ToUpper(symbol)).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &stock, nil
}

// FindOrCreateStock returns the stock row for a symbol, creating it on first
// reference. Idempotent by symbol.
func (s *ledgerService) FindOrCreateStock(tx *gorm.DB, symbol, name string) (*models.Stock, error) {
	stock, err := s.FindStockBySymbol(tx, symbol)
	if err != nil {
		return nil, err
	}
	if stock != nil {
		return stock, nil
	}

	upper := strings.ToUpper(symbol)
	stock = &models.Stock{Symbol: &upper, Name: name}
	if err := tx.Create(stock).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return stock, nil
}

// FindOrCreateCashStock returns the synthetic stock row for cash movements
// ("Deposit" or "Withdrawal"), creating it on first reference. Synthetic rows
// have no symbol and are keyed by name.
func (s *ledgerService) FindOrCreateCashStock(tx *gorm.DB, name string) (*models.Stock, error) {
	var stock models.Stock
	err := tx.Where("name = ? AND symbol IS NULL", name).First(&stock).Error
	if err == nil {
		return &stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	stock = models.Stock{Name: name}
	if err := tx.Create(&stock).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &stock, nil
}

// FindHolding returns the holding for a (user, stock) pair, or nil when the
// user holds no shares of that stock.
func (s *ledgerService) FindHolding(tx *gorm.DB, userID, stockID string) (*models.Holding, error) {
	var holding models.Holding
	err := tx.Where("user_id = ? AND stock_id = ?", userID, stockID).First(&holding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &holding, nil
}

// UpsertHolding applies a share-count delta to the (user, stock) holding:
// it creates the row on a first buy, deletes it when the quantity reaches
// zero, and refuses to let the quantity go negative. A holding row never
// stores a quantity <= 0.
func (s *ledgerService) UpsertHolding(tx *gorm.DB, userID, stockID string, delta int64) error {
	holding, err := s.FindHolding(tx, userID, stockID)
	if err != nil {
		return err
	}

	if holding == nil {
		if delta <= 0 {
			return apperrors.ErrInsufficientShares
		}
		holding = &models.Holding{UserID: userID, StockID: stockID, Quantity: delta}
		if err := tx.Create(holding).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
		return nil
	}

	newQuantity := holding.Quantity + delta
	switch {
	case newQuantity < 0:
		return apperrors.ErrInsufficientShares
	case newQuantity == 0:
		if err := tx.Delete(holding).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
	default:
		if err := tx.Model(holding).Update("quantity", newQuantity).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	return nil
}

// AppendTransaction writes one immutable row to the transaction log. Existing
// rows are never touched.
func (s *ledgerService) AppendTransaction(
	tx *gorm.DB,
	userID, stockID, typeName string,
	quantity int64,
	price money.Money,
	at time.Time,
) (*models.Transaction, error) {
	var tt models.TransactionType
	if err := tx.Where("name = ?", typeName).First(&tt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	transaction := &models.Transaction{
		UserID:     userID,
		StockID:    stockID,
		TypeID:     tt.ID,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: at,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return transaction, nil
}

// LastKnownPrice returns the price of the most recent transaction referencing
// the stock, across all users. The second return is false when the stock has
// no transactions at all.
func (s *ledgerService) LastKnownPrice(stockID string) (money.Money, bool, error) {
	var transaction models.Transaction
	err := s.db.Where("stock_id = ?", stockID).
		Order("executed_at DESC").
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return money.Zero(), false, nil
		}
		return money.Zero(), false, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return transaction.Price, true, nil
}

// DeleteUserCascade removes a user together with all of their holdings and
// transactions, then garbage-collects any stock no transaction references
// anymore. All of it happens in one transaction.
func (s *ledgerService) DeleteUserCascade(userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Holding{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}

		// A stock with no remaining transaction references is orphaned.
		referenced := tx.Model(&models.Transaction{}).Select("stock_id")
		if err := tx.Where("id NOT IN (?)", referenced).Delete(&models.Stock{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
		return nil
	})
}
