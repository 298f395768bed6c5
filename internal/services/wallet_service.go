package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/models"
)

// DefaultStartingBalance is the cash balance a wallet is created with and the
// balance an account reset restores.
var DefaultStartingBalance = decimal.NewFromInt(1_000_000)

// ResetThreshold is the net worth at or above which an account reset is refused.
var ResetThreshold = decimal.NewFromInt(50_000)

// walletService handles the cash ledger: balance reads, fund additions, and
// the guarded account reset.
type walletService struct {
	db *gorm.DB
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB) WalletServicer {
	return &walletService{db: db}
}

// getOrCreateWallet loads the user's wallet inside tx, creating it with the
// default starting balance on first access. Shared with the trading service
// so trades and wallet operations agree on lazy creation.
func getOrCreateWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	wallet = models.Wallet{UserID: userID, Balance: DefaultStartingBalance}
	if err := tx.Create(&wallet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// GetBalance returns the user's cash balance, creating the wallet if needed.
func (s *walletService) GetBalance(userID uint) (decimal.Decimal, error) {
	wallet, err := getOrCreateWallet(s.db, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// AddFunds credits a positive amount to the wallet and returns the new balance.
func (s *walletService) AddFunds(userID uint, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be positive")
	}

	var newBalance decimal.Decimal
	err := withRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			wallet, err := getOrCreateWallet(tx, userID)
			if err != nil {
				return err
			}
			// Relative update. A trade on any stock may hit the same wallet
			// row concurrently, so the new balance is never computed in Go.
			if err := tx.Model(&models.Wallet{}).Where("user_id = ?", userID).
				Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.First(wallet, wallet.ID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			newBalance = wallet.Balance
			return nil
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// ResetAccount wipes the user's positions and transactions and restores the
// default starting balance, but only while net worth (cash plus live market
// value of all positions) is under ResetThreshold. The threshold check and
// the wipe run inside one transaction, and the wipe is all-or-nothing.
func (s *walletService) ResetAccount(userID uint) (decimal.Decimal, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		netWorth, err := netWorth(tx, userID)
		if err != nil {
			return err
		}
		if netWorth.GreaterThanOrEqual(ResetThreshold) {
			return apperrors.WithMessage(apperrors.ErrResetNotAllowed,
				fmt.Sprintf("Net worth (%s) is above %s. Account reset not allowed.",
					netWorth.StringFixed(2), ResetThreshold.StringFixed(2)))
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Position{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		wallet, err := getOrCreateWallet(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Model(wallet).Update("balance", DefaultStartingBalance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return DefaultStartingBalance, nil
}

// netWorth computes cash balance plus the live market value of every position.
func netWorth(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	wallet, err := getOrCreateWallet(tx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	var positions []models.Position
	if err := tx.Preload("Stock").Where("user_id = ?", userID).Find(&positions).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	netWorth := wallet.Balance
	for i := range positions {
		value := decimal.NewFromInt(positions[i].Quantity).Mul(positions[i].Stock.CurrentPrice)
		netWorth = netWorth.Add(value)
	}
	return netWorth, nil
}
