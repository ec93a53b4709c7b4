package integration

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"papertrade/internal/logger"
	"papertrade/internal/models"
	"papertrade/internal/quote"
	"papertrade/internal/services"
	"papertrade/internal/testutil"
)

// testApp holds the full service stack for integration tests.
type testApp struct {
	DB        *gorm.DB
	Users     services.UserServicer
	Ledger    services.LedgerServicer
	Trading   services.TradingServicer
	Portfolio services.PortfolioServicer
	Oracle    *testutil.StaticOracle
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	logger.Init("test")
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Stock{},
		&models.TransactionType{},
		&models.Holding{},
		&models.Transaction{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp wires the full service stack backed by an isolated in-memory
// SQLite and a static quote oracle.
func setupApp(t *testing.T, prices map[string]string) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	ledger := services.NewLedgerService(db)
	if err := ledger.SeedTransactionTypes(); err != nil {
		t.Fatalf("failed to seed transaction types: %v", err)
	}

	users := services.NewUserService(db)
	oracle := testutil.NewStaticOracle(t, prices)
	trading := services.NewTradingService(db, ledger, users, oracle, time.Second)
	portfolio := services.NewPortfolioService(db, ledger, oracle, time.Second)

	return &testApp{
		DB:        db,
		Users:     users,
		Ledger:    ledger,
		Trading:   trading,
		Portfolio: portfolio,
		Oracle:    oracle,
	}
}

// setQuote adjusts the oracle's price for a symbol mid-test.
func (app *testApp) setQuote(t *testing.T, symbol, price string) {
	t.Helper()
	app.Oracle.Quotes[symbol] = quote.Quote{
		Symbol: symbol,
		Name:   symbol + " Inc",
		Price:  testutil.MustMoney(t, price),
	}
}
