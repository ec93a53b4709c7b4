package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"papertrade/internal/models"
	"papertrade/internal/testutil"
)

func newTestTradingService(t *testing.T, db *gorm.DB, prices map[string]string) TradingServicer {
	t.Helper()
	ledger := NewLedgerService(db)
	users := NewUserService(db)
	oracle := testutil.NewStaticOracle(t, prices)
	return NewTradingService(db, ledger, users, oracle, time.Second)
}

func TestBuy(t *testing.T) {
	t.Run("debits_cash_and_records_holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "150.00"})
		user := testutil.CreateTestUser(t, db)

		confirmation, err := svc.Buy(context.Background(), user.ID, "aapl", 10)
		testutil.AssertNoError(t, err)

		if confirmation.Symbol != "AAPL" {
			t.Errorf("expected symbol AAPL, got %s", confirmation.Symbol)
		}
		if confirmation.Total.String() != "1500.00" {
			t.Errorf("expected total 1500.00, got %s", confirmation.Total)
		}
		if confirmation.Cash.String() != "8500.00" {
			t.Errorf("expected cash 8500.00, got %s", confirmation.Cash)
		}

		var dbUser models.User
		db.First(&dbUser, "id = ?", user.ID)
		if dbUser.Cash.String() != "8500.00" {
			t.Errorf("expected persisted cash 8500.00, got %s", dbUser.Cash)
		}

		var holding models.Holding
		db.Where("user_id = ?", user.ID).First(&holding)
		if holding.Quantity != 10 {
			t.Errorf("expected holding of 10 shares, got %d", holding.Quantity)
		}

		var txCount int64
		db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&txCount)
		if txCount != 1 {
			t.Errorf("expected 1 transaction row, got %d", txCount)
		}
	})

	t.Run("repeat_buy_grows_existing_holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "100.00"})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Buy(context.Background(), user.ID, "AAPL", 3)
		testutil.AssertNoError(t, err)
		_, err = svc.Buy(context.Background(), user.ID, "AAPL", 4)
		testutil.AssertNoError(t, err)

		var holdingCount int64
		db.Model(&models.Holding{}).Where("user_id = ?", user.ID).Count(&holdingCount)
		if holdingCount != 1 {
			t.Fatalf("expected a single holding row, got %d", holdingCount)
		}

		var holding models.Holding
		db.Where("user_id = ?", user.ID).First(&holding)
		if holding.Quantity != 7 {
			t.Errorf("expected 7 shares, got %d", holding.Quantity)
		}
	})

	t.Run("insufficient_funds_changes_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "150.00"})
		user := testutil.CreateTestUserWithCash(t, db, "100.00")

		_, err := svc.Buy(context.Background(), user.ID, "AAPL", 1)
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")

		var dbUser models.User
		db.First(&dbUser, "id = ?", user.ID)
		if dbUser.Cash.String() != "100.00" {
			t.Errorf("expected cash unchanged at 100.00, got %s", dbUser.Cash)
		}

		var txCount int64
		db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&txCount)
		if txCount != 0 {
			t.Errorf("expected no transaction rows, got %d", txCount)
		}
	})

	t.Run("exact_funds_is_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "50.00"})
		user := testutil.CreateTestUserWithCash(t, db, "100.00")

		confirmation, err := svc.Buy(context.Background(), user.ID, "AAPL", 2)
		testutil.AssertNoError(t, err)
		if !confirmation.Cash.IsZero() {
			t.Errorf("expected cash 0.00, got %s", confirmation.Cash)
		}
	})

	t.Run("no_quote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Buy(context.Background(), user.ID, "NOPE", 1)
		testutil.AssertAppError(t, err, "NO_QUOTE")
	})

	t.Run("rejects_non_positive_shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "150.00"})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Buy(context.Background(), user.ID, "AAPL", 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.Buy(context.Background(), user.ID, "AAPL", -3)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "150.00"})

		_, err := svc.Buy(context.Background(), "no-such-id", "AAPL", 1)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestSell(t *testing.T) {
	t.Run("credits_cash_and_reduces_holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "200.00"})
		user := testutil.CreateTestUserWithCash(t, db, "1000.00")
		stock := testutil.CreateTestStock(t, db, "AAPL", "Apple Inc")
		testutil.CreateTestHolding(t, db, user.ID, stock.ID, 10)

		confirmation, err := svc.Sell(context.Background(), user.ID, "AAPL", 4)
		testutil.AssertNoError(t, err)

		if confirmation.Total.String() != "800.00" {
			t.Errorf("expected proceeds 800.00, got %s", confirmation.Total)
		}
		if confirmation.Cash.String() != "1800.00" {
			t.Errorf("expected cash 1800.00, got %s", confirmation.Cash)
		}

		var holding models.Holding
		db.Where("user_id = ? AND stock_id = ?", user.ID, stock.ID).First(&holding)
		if holding.Quantity != 6 {
			t.Errorf("expected 6 shares left, got %d", holding.Quantity)
		}
	})

	t.Run("selling_everything_removes_the_holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "200.00"})
		user := testutil.CreateTestUser(t, db)
		stock := testutil.CreateTestStock(t, db, "AAPL", "Apple Inc")
		testutil.CreateTestHolding(t, db, user.ID, stock.ID, 10)

		_, err := svc.Sell(context.Background(), user.ID, "AAPL", 10)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.Holding{}).Where("user_id = ? AND stock_id = ?", user.ID, stock.ID).Count(&count)
		if count != 0 {
			t.Error("expected holding row to be removed at zero shares")
		}
	})

	t.Run("insufficient_shares_changes_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "200.00"})
		user := testutil.CreateTestUserWithCash(t, db, "1000.00")
		stock := testutil.CreateTestStock(t, db, "AAPL", "Apple Inc")
		testutil.CreateTestHolding(t, db, user.ID, stock.ID, 3)

		_, err := svc.Sell(context.Background(), user.ID, "AAPL", 4)
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")

		var dbUser models.User
		db.First(&dbUser, "id = ?", user.ID)
		if dbUser.Cash.String() != "1000.00" {
			t.Errorf("expected cash unchanged at 1000.00, got %s", dbUser.Cash)
		}

		var holding models.Holding
		db.Where("user_id = ? AND stock_id = ?", user.ID, stock.ID).First(&holding)
		if holding.Quantity != 3 {
			t.Errorf("expected holding unchanged at 3, got %d", holding.Quantity)
		}
	})

	t.Run("unheld_symbol_is_insufficient_shares_before_any_quote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		// Empty oracle: if the share check came after the quote lookup this
		// would surface NO_QUOTE instead.
		svc := newTestTradingService(t, db, map[string]string{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Sell(context.Background(), user.ID, "AAPL", 1)
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")
	})
}

func TestCashTransaction(t *testing.T) {
	t.Run("deposit_adds_cash_and_logs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUserWithCash(t, db, "100.00")

		confirmation, err := svc.CashTransaction(user.ID, "$250.50", true, testutil.TestPassword)
		testutil.AssertNoError(t, err)

		if confirmation.Amount.String() != "250.50" {
			t.Errorf("expected amount 250.50, got %s", confirmation.Amount)
		}
		if confirmation.Cash.String() != "350.50" {
			t.Errorf("expected cash 350.50, got %s", confirmation.Cash)
		}

		var tx models.Transaction
		db.Preload("Stock").Preload("Type").Where("user_id = ?", user.ID).First(&tx)
		if tx.Type.Name != models.TransactionTypeCash {
			t.Errorf("expected CASH transaction, got %s", tx.Type.Name)
		}
		if tx.Quantity != 0 {
			t.Errorf("expected zero quantity, got %d", tx.Quantity)
		}
		if tx.Stock.Name != models.CashStockDeposit {
			t.Errorf("expected Deposit stock row, got %s", tx.Stock.Name)
		}
		if !tx.Stock.IsSynthetic() {
			t.Error("expected the cash stock row to have no symbol")
		}
	})

	t.Run("withdrawal_subtracts_cash", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUserWithCash(t, db, "500.00")

		confirmation, err := svc.CashTransaction(user.ID, "200.00", false, testutil.TestPassword)
		testutil.AssertNoError(t, err)

		if confirmation.Cash.String() != "300.00" {
			t.Errorf("expected cash 300.00, got %s", confirmation.Cash)
		}

		var tx models.Transaction
		db.Preload("Stock").Where("user_id = ?", user.ID).First(&tx)
		if tx.Stock.Name != models.CashStockWithdrawal {
			t.Errorf("expected Withdrawal stock row, got %s", tx.Stock.Name)
		}
	})

	t.Run("deposit_withdraw_round_trip_restores_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUserWithCash(t, db, "100.00")

		_, err := svc.CashTransaction(user.ID, "42.42", true, testutil.TestPassword)
		testutil.AssertNoError(t, err)
		_, err = svc.CashTransaction(user.ID, "42.42", false, testutil.TestPassword)
		testutil.AssertNoError(t, err)

		var dbUser models.User
		db.First(&dbUser, "id = ?", user.ID)
		if dbUser.Cash.String() != "100.00" {
			t.Errorf("expected cash back at 100.00, got %s", dbUser.Cash)
		}
	})

	t.Run("overdraft_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUserWithCash(t, db, "50.00")

		_, err := svc.CashTransaction(user.ID, "50.01", false, testutil.TestPassword)
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CashTransaction(user.ID, "100.00", true, "WrongPass1")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unparseable_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUser(t, db)

		for _, amount := range []string{"abc", "-5", "1,000", "12.345", ""} {
			_, err := svc.CashTransaction(user.ID, amount, true, testutil.TestPassword)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CashTransaction(user.ID, "0.00", true, testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("removes_user_and_their_data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, map[string]string{"AAPL": "100.00"})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Buy(context.Background(), user.ID, "AAPL", 2)
		testutil.AssertNoError(t, err)

		err = svc.DeleteAccount(user.ID, testutil.TestPassword, true)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Error("expected user to be deleted")
		}
	})

	t.Run("requires_confirmation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteAccount(user.ID, testutil.TestPassword, false)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		var count int64
		db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Error("expected user to survive an unconfirmed deletion")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTradingService(t, db, nil)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteAccount(user.ID, "WrongPass1", true)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}
