package models

import (
	"time"

	"papertrade/internal/money"
)

// Transaction-type names. These three rows are seeded once and never change.
const (
	TransactionTypeBuy  = "BUY"
	TransactionTypeSell = "SELL"
	TransactionTypeCash = "CASH"
)

// TransactionType is immutable reference data enumerating BUY, SELL and CASH.
type TransactionType struct {
	Base
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Transaction is an immutable append-only ledger record. Quantity is zero for
// pure cash movements; Price holds the per-share price for trades and the
// cash amount for deposits and withdrawals. Rows are never updated or deleted
// except through the cascading account deletion.
type Transaction struct {
	Base
	UserID     string      `gorm:"type:uuid;not null;index" json:"user_id"`
	StockID    string      `gorm:"type:uuid;not null;index" json:"stock_id"`
	TypeID     string      `gorm:"type:uuid;not null" json:"type_id"`
	Quantity   int64       `gorm:"not null" json:"quantity"`
	Price      money.Money `gorm:"type:text;not null" json:"price"`
	ExecutedAt time.Time   `gorm:"not null;index" json:"executed_at"`

	Stock Stock           `gorm:"foreignKey:StockID" json:"stock"`
	Type  TransactionType `gorm:"foreignKey:TypeID" json:"type"`
}
