package models

// Holding is one user's current share count in one stock. At most one row
// exists per (user, stock) pair and its quantity is always positive: the
// ledger deletes the row instead of writing a zero.
type Holding struct {
	Base
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:uq_holdings_user_stock" json:"user_id"`
	StockID  string `gorm:"type:uuid;not null;uniqueIndex:uq_holdings_user_stock" json:"stock_id"`
	Quantity int64  `gorm:"not null" json:"quantity"`

	Stock Stock `gorm:"foreignKey:StockID" json:"stock"`
}
