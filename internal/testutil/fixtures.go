package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"papertrade/internal/models"
	"papertrade/internal/money"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password every fixture user is created with.
// It satisfies the registration policy.
const TestPassword = "Passw0rdOK"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// MustMoney parses a decimal amount or fails the test.
func MustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s)
	if err != nil {
		t.Fatalf("failed to parse money %q: %v", s, err)
	}
	return m
}

// CreateTestUser creates a user with the default starting cash and a unique
// username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithCash(t, db, models.DefaultStartingCash)
}

// CreateTestUserWithCash creates a user holding the given cash balance.
func CreateTestUserWithCash(t *testing.T, db *gorm.DB, cash string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     fmt.Sprintf("trader%d", nextID()),
		PasswordHash: string(hash),
		Cash:         MustMoney(t, cash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestStock creates a stock row for the given symbol.
func CreateTestStock(t *testing.T, db *gorm.DB, symbol, name string) *models.Stock {
	t.Helper()

	upper := strings.ToUpper(symbol)
	stock := &models.Stock{Symbol: &upper, Name: name}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateTestHolding creates a holding for the (user, stock) pair.
func CreateTestHolding(t *testing.T, db *gorm.DB, userID, stockID string, quantity int64) *models.Holding {
	t.Helper()

	holding := &models.Holding{UserID: userID, StockID: stockID, Quantity: quantity}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

// CreateTestTransaction appends a transaction of the given type to the log.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, stockID, typeName string, quantity int64, price string) *models.Transaction {
	t.Helper()

	var tt models.TransactionType
	if err := db.Where("name = ?", typeName).First(&tt).Error; err != nil {
		t.Fatalf("failed to find transaction type %s: %v", typeName, err)
	}

	tx := &models.Transaction{
		UserID:     userID,
		StockID:    stockID,
		TypeID:     tt.ID,
		Quantity:   quantity,
		Price:      MustMoney(t, price),
		ExecutedAt: time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
