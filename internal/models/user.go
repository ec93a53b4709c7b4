package models

import "papertrade/internal/money"

// DefaultStartingCash is the cash balance granted to every new user.
const DefaultStartingCash = "10000.00"

// User represents a registered trader. Cash is stored as canonical decimal
// text; the engine checks it never goes below zero before any debit.
type User struct {
	Base
	Username     string      `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string      `gorm:"not null" json:"-"`
	Cash         money.Money `gorm:"type:text;not null" json:"cash"`

	Holdings     []Holding     `gorm:"foreignKey:UserID" json:"holdings,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
