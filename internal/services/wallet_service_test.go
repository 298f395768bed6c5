package services

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/models"
	"paperbull/internal/testutil"
)

func TestGetBalance(t *testing.T) {
	t.Run("creates wallet with starting balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)

		balance, err := svc.GetBalance(user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, balance, DefaultStartingBalance, "starting balance")

		var count int64
		db.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected a single wallet row, got %d", count)
		}

		// Repeated reads reuse the same wallet.
		balance, err = svc.GetBalance(user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, balance, DefaultStartingBalance, "balance on reread")
	})

	t.Run("returns existing balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(777))

		balance, err := svc.GetBalance(user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, balance, decimal.NewFromInt(777), "existing balance")
	})
}

func TestAddFunds(t *testing.T) {
	t.Run("credits the wallet", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(100))

		balance, err := svc.AddFunds(user.ID, decimal.NewFromFloat(49.50))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, balance, decimal.NewFromFloat(149.50), "new balance")
	})

	t.Run("credit lands alongside a concurrent trade", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		trades := NewTradingService(db)
		user := testutil.CreateTestUser(t, db)
		stock := testutil.CreateTestStock(t, db, decimal.NewFromInt(100))
		testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(1000))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = svc.AddFunds(user.ID, decimal.NewFromInt(500))
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = trades.Buy(user.ID, stock.ID, 5)
		}()
		wg.Wait()
		testutil.AssertNoError(t, errs[0])
		testutil.AssertNoError(t, errs[1])

		// The 500 credit and the 500 debit must both survive.
		var wallet models.Wallet
		db.Where("user_id = ?", user.ID).First(&wallet)
		testutil.AssertDecimalEqual(t, wallet.Balance, decimal.NewFromInt(1000), "wallet balance")
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(100))

		_, err := svc.AddFunds(user.ID, decimal.Zero)
		testutil.AssertAppError(t, err, apperrors.ErrInvalidInput.Code)

		_, err = svc.AddFunds(user.ID, decimal.NewFromInt(-10))
		testutil.AssertAppError(t, err, apperrors.ErrInvalidInput.Code)

		var wallet models.Wallet
		db.Where("user_id = ?", user.ID).First(&wallet)
		testutil.AssertDecimalEqual(t, wallet.Balance, decimal.NewFromInt(100), "unchanged balance")
	})
}

func TestResetAccount(t *testing.T) {
	t.Run("allowed below the threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		stock := testutil.CreateTestStock(t, db, decimal.NewFromInt(100))
		testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(10_000))
		testutil.CreateTestPosition(t, db, user.ID, stock.ID, 5, decimal.NewFromInt(200))
		testutil.CreateTestTransaction(t, db, user.ID, stock.ID, models.TransactionKindBuy, 5, decimal.NewFromInt(200))

		// Net worth is 10,000 + 5*100 = 10,500, well under the threshold.
		balance, err := svc.ResetAccount(user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, balance, DefaultStartingBalance, "restored balance")

		var positions, transactions int64
		db.Model(&models.Position{}).Where("user_id = ?", user.ID).Count(&positions)
		db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&transactions)
		if positions != 0 {
			t.Errorf("expected positions wiped, found %d", positions)
		}
		if transactions != 0 {
			t.Errorf("expected transactions wiped, found %d", transactions)
		}

		var wallet models.Wallet
		db.Where("user_id = ?", user.ID).First(&wallet)
		testutil.AssertDecimalEqual(t, wallet.Balance, DefaultStartingBalance, "wallet balance after reset")
	})

	t.Run("refused at or above the threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		stock := testutil.CreateTestStock(t, db, decimal.NewFromInt(10_000))
		testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(100))
		testutil.CreateTestPosition(t, db, user.ID, stock.ID, 5, decimal.NewFromInt(200))
		testutil.CreateTestTransaction(t, db, user.ID, stock.ID, models.TransactionKindBuy, 5, decimal.NewFromInt(200))

		// Net worth is 100 + 5*10,000 = 50,100, above the threshold.
		_, err := svc.ResetAccount(user.ID)
		testutil.AssertAppError(t, err, apperrors.ErrResetNotAllowed.Code)

		var positions, transactions int64
		db.Model(&models.Position{}).Where("user_id = ?", user.ID).Count(&positions)
		db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&transactions)
		if positions != 1 || transactions != 1 {
			t.Errorf("expected history intact, got %d positions and %d transactions", positions, transactions)
		}
	})

	t.Run("threshold reflects the price at reset time", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		stock := testutil.CreateTestStock(t, db, decimal.NewFromInt(100))
		testutil.CreateTestWallet(t, db, user.ID, decimal.NewFromInt(100))
		testutil.CreateTestPosition(t, db, user.ID, stock.ID, 5, decimal.NewFromInt(100))

		// Net worth was 600 when the position was opened. A rally before the
		// reset call pushes it to 100,100, so the wipe must be refused.
		setStockPrice(t, db, stock.ID, decimal.NewFromInt(20_000))

		_, err := svc.ResetAccount(user.ID)
		testutil.AssertAppError(t, err, apperrors.ErrResetNotAllowed.Code)

		var positions int64
		db.Model(&models.Position{}).Where("user_id = ?", user.ID).Count(&positions)
		if positions != 1 {
			t.Errorf("expected position intact, found %d", positions)
		}
	})

	t.Run("refused exactly at the threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWallet(t, db, user.ID, ResetThreshold)

		_, err := svc.ResetAccount(user.ID)
		testutil.AssertAppError(t, err, apperrors.ErrResetNotAllowed.Code)
	})

	t.Run("fresh default wallet is refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)

		// A freshly created wallet holds the full starting balance, which is
		// already above the threshold.
		_, err := svc.ResetAccount(user.ID)
		testutil.AssertAppError(t, err, apperrors.ErrResetNotAllowed.Code)
	})
}
