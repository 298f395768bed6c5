package testutil_test

import (
	"testing"

	"paperbull/internal/errors"
	"paperbull/internal/models"
	"paperbull/internal/testutil"

	"github.com/shopspring/decimal"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "stocks", "wallets", "positions", "transactions", "watchlist_items"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == 0 {
		t.Fatal("user should have a non-zero ID")
	}

	stock := testutil.CreateTestStock(t, db, decimal.NewFromInt(250))
	if !stock.CurrentPrice.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected price 250, got %s", stock.CurrentPrice)
	}

	wallet := testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(5000))
	if !wallet.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("expected balance 5000, got %s", wallet.Balance)
	}

	position := testutil.CreateTestPosition(t, db, user.ID, stock.ID, 10, decimal.NewFromInt(240))
	if position.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", position.Quantity)
	}

	txn := testutil.CreateTestTransaction(t, db, user.ID, stock.ID, models.TransactionKindBuy, 10, decimal.NewFromInt(250))
	if txn.Kind != models.TransactionKindBuy {
		t.Errorf("expected BUY, got %s", txn.Kind)
	}

	item := testutil.CreateTestWatchlistItem(t, db, user.ID, stock.ID)
	if item.StockID != stock.ID {
		t.Errorf("expected stock ID %d, got %d", stock.ID, item.StockID)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrStockNotFound, "no such stock")
	testutil.AssertAppError(t, err, errors.ErrStockNotFound.Code)
}
