package models

// Synthetic stock names used to record cash movements in the transaction log.
const (
	CashStockDeposit    = "Deposit"
	CashStockWithdrawal = "Withdrawal"
)

// Stock represents a tradable symbol, created lazily on first reference and
// garbage-collected when no transaction references it. Symbol is a pointer so
// the two synthetic cash rows, which have no ticker, can coexist under the
// unique index.
type Stock struct {
	Base
	Symbol *string `gorm:"uniqueIndex" json:"symbol,omitempty"`
	Name   string  `gorm:"not null" json:"name"`

	Transactions []Transaction `gorm:"foreignKey:StockID" json:"transactions,omitempty"`
	Holdings     []Holding     `gorm:"foreignKey:StockID" json:"holdings,omitempty"`
}

// DisplaySymbol returns the ticker, or "" for synthetic cash rows.
func (s *Stock) DisplaySymbol() string {
	if s.Symbol == nil {
		return ""
	}
	return *s.Symbol
}

// IsSynthetic reports whether this row represents a cash movement rather
// than a tradable stock.
func (s *Stock) IsSynthetic() bool {
	return s.Symbol == nil
}
