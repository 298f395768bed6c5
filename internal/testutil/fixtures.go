package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"paperbull/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestStock creates a stock with a unique symbol and the given price.
func CreateTestStock(t *testing.T, db *gorm.DB, price decimal.Decimal) *models.Stock {
	t.Helper()
	symbol := fmt.Sprintf("TST%d", nextID())
	return CreateTestStockWithSymbol(t, db, symbol, price)
}

// CreateTestStockWithSymbol creates a stock with the given symbol and price.
func CreateTestStockWithSymbol(t *testing.T, db *gorm.DB, symbol string, price decimal.Decimal) *models.Stock {
	t.Helper()

	stock := &models.Stock{
		Symbol:         symbol,
		Name:           fmt.Sprintf("%s Corporation Limited", symbol),
		CurrentPrice:   price,
		Volume:         1000000,
		PriceUpdatedAt: time.Now(),
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateTestWallet creates a wallet for the user with the given balance.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID uint, balance decimal.Decimal) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:  userID,
		Balance: balance,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestPosition creates a position for the user in the given stock.
func CreateTestPosition(t *testing.T, db *gorm.DB, userID, stockID uint, quantity int64, avgCost decimal.Decimal) *models.Position {
	t.Helper()

	position := &models.Position{
		UserID:      userID,
		StockID:     stockID,
		Quantity:    quantity,
		AverageCost: avgCost,
	}
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}

// CreateTestTransaction records a trade in the ledger.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, stockID uint, kind models.TransactionKind, quantity int64, price decimal.Decimal) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:   userID,
		StockID:  stockID,
		Kind:     kind,
		Quantity: quantity,
		Price:    price,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// CreateTestWatchlistItem watches a stock for the user.
func CreateTestWatchlistItem(t *testing.T, db *gorm.DB, userID, stockID uint) *models.WatchlistItem {
	t.Helper()

	item := &models.WatchlistItem{
		UserID:  userID,
		StockID: stockID,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test watchlist item: %v", err)
	}
	return item
}
