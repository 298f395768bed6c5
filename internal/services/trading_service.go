package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/keylock"
	"paperbull/internal/models"
	"paperbull/internal/pagination"
)

// maxTradeRetries bounds retries of the atomic trade unit on transient
// storage conflicts before surfacing a failure.
const maxTradeRetries = 3

// tradingService executes buys and sells as single atomic units against the
// wallet, position, and transaction ledgers. Trades on the same (user, stock)
// pair serialize through a keyed mutex; different pairs proceed concurrently.
type tradingService struct {
	db    *gorm.DB
	locks *keylock.KeyedMutex
}

// NewTradingService creates a new TradingServicer.
func NewTradingService(db *gorm.DB) TradingServicer {
	return &tradingService{db: db, locks: keylock.New()}
}

func tradeKey(userID, stockID uint) string {
	return fmt.Sprintf("%d:%d", userID, stockID)
}

// Buy purchases quantity shares at the server's current price. The execution
// price is always read inside the transaction; any client-supplied price is
// ignored for settlement.
func (s *tradingService) Buy(userID, stockID uint, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be a positive integer")
	}

	unlock := s.locks.Lock(tradeKey(userID, stockID))
	defer unlock()

	var result *TradeResult
	err := withRetry(func() error {
		result = nil
		return s.db.Transaction(func(tx *gorm.DB) error {
			stock, err := lockStock(tx, stockID)
			if err != nil {
				return err
			}
			currentPrice := stock.CurrentPrice

			wallet, err := getOrCreateWallet(tx, userID)
			if err != nil {
				return err
			}

			// The key lock only covers this (user, stock) pair; a trade on
			// another stock may touch the same wallet row concurrently. The
			// debit is a guarded relative update so it composes with those.
			totalCost := currentPrice.Mul(decimal.NewFromInt(quantity))
			debit := tx.Model(&models.Wallet{}).
				Where("user_id = ? AND balance >= ?", userID, totalCost).
				Update("balance", gorm.Expr("balance - ?", totalCost))
			if debit.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, debit.Error)
			}
			if debit.RowsAffected == 0 {
				return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
					fmt.Sprintf("Insufficient balance. Required: %s, available: %s",
						totalCost.StringFixed(2), wallet.Balance.StringFixed(2)))
			}

			var position models.Position
			err = tx.Where("user_id = ? AND stock_id = ?", userID, stockID).First(&position).Error
			switch {
			case err == nil:
				// Volume-weighted average of the existing lot and this fill.
				oldQty := decimal.NewFromInt(position.Quantity)
				newQty := decimal.NewFromInt(position.Quantity + quantity)
				newAvg := oldQty.Mul(position.AverageCost).Add(totalCost).Div(newQty).Round(2)

				updates := map[string]interface{}{
					"quantity":     position.Quantity + quantity,
					"average_cost": newAvg,
				}
				if err := tx.Model(&position).Updates(updates).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				position = models.Position{
					UserID:      userID,
					StockID:     stockID,
					Quantity:    quantity,
					AverageCost: currentPrice,
				}
				if err := tx.Create(&position).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			default:
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			transaction := models.Transaction{
				UserID:   userID,
				StockID:  stockID,
				Kind:     models.TransactionKindBuy,
				Quantity: quantity,
				Price:    currentPrice,
			}
			if err := tx.Create(&transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			position.Stock = *stock
			result = &TradeResult{
				Position:      &position,
				Transaction:   transaction,
				ExecutedPrice: currentPrice,
				Total:         totalCost,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Sell disposes quantity shares at the server's current price. Selling the
// full held quantity deletes the position row; a partial sell leaves the
// average cost untouched.
func (s *tradingService) Sell(userID, stockID uint, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be a positive integer")
	}

	unlock := s.locks.Lock(tradeKey(userID, stockID))
	defer unlock()

	var result *TradeResult
	err := withRetry(func() error {
		result = nil
		return s.db.Transaction(func(tx *gorm.DB) error {
			stock, err := lockStock(tx, stockID)
			if err != nil {
				return err
			}
			currentPrice := stock.CurrentPrice

			var position models.Position
			err = tx.Where("user_id = ? AND stock_id = ?", userID, stockID).First(&position).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.WithMessage(apperrors.ErrNotInPortfolio,
					fmt.Sprintf("You don't own any shares of %s", stock.Symbol))
			}
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			if position.Quantity < quantity {
				return apperrors.WithMessage(apperrors.ErrInsufficientShares,
					fmt.Sprintf("Insufficient shares. You own %d, trying to sell %d", position.Quantity, quantity))
			}

			if _, err := getOrCreateWallet(tx, userID); err != nil {
				return err
			}

			// Relative credit, same reasoning as the debit in Buy.
			proceeds := currentPrice.Mul(decimal.NewFromInt(quantity))
			if err := tx.Model(&models.Wallet{}).Where("user_id = ?", userID).
				Update("balance", gorm.Expr("balance + ?", proceeds)).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			remaining := position.Quantity - quantity
			var resultPosition *models.Position
			if remaining == 0 {
				if err := tx.Delete(&position).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			} else {
				if err := tx.Model(&position).Update("quantity", remaining).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				position.Stock = *stock
				resultPosition = &position
			}

			transaction := models.Transaction{
				UserID:   userID,
				StockID:  stockID,
				Kind:     models.TransactionKindSell,
				Quantity: quantity,
				Price:    currentPrice,
			}
			if err := tx.Create(&transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			result = &TradeResult{
				Position:      resultPosition,
				Transaction:   transaction,
				ExecutedPrice: currentPrice,
				Total:         proceeds,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetPortfolio returns the user's positions projected against the live stored
// price. Valuation is recomputed on every call and never persisted.
func (s *tradingService) GetPortfolio(userID uint) ([]models.PositionView, error) {
	var positions []models.Position
	if err := s.db.Preload("Stock").Where("user_id = ?", userID).
		Order("id ASC").Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]models.PositionView, 0, len(positions))
	for i := range positions {
		p := positions[i]
		qty := decimal.NewFromInt(p.Quantity)
		currentValue := qty.Mul(p.Stock.CurrentPrice)
		costValue := qty.Mul(p.AverageCost)

		view := models.PositionView{
			Position:     p,
			CurrentPrice: p.Stock.CurrentPrice,
			CurrentValue: currentValue,
			ProfitLoss:   currentValue.Sub(costValue),
		}
		if !p.AverageCost.IsZero() {
			view.ProfitLossPercent = p.Stock.CurrentPrice.Sub(p.AverageCost).
				Div(p.AverageCost).Mul(decimal.NewFromInt(100)).Round(2)
		}
		views = append(views, view)
	}
	return views, nil
}

// GetTransactions returns the user's trade ledger newest-first. Entries come
// back in true commit order; the ID breaks same-timestamp ties.
func (s *tradingService) GetTransactions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).
		Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := s.db.Preload("Stock").Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// lockStock reads the stock inside the trade transaction. The price read here
// is the one settled and recorded; a concurrent ticker write lands either
// before or after the whole trade, never in the middle of it.
func lockStock(tx *gorm.DB, stockID uint) (*models.Stock, error) {
	var stock models.Stock
	if err := tx.First(&stock, stockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// withRetry reruns the atomic unit on transient storage conflicts, a bounded
// number of times. Business-rule rejections are returned immediately.
func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxTradeRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isTransientStorageError(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return apperrors.Wrap(apperrors.ErrStorageConflict, err)
}

// isTransientStorageError reports whether err looks like a serialization
// conflict or lock timeout worth retrying.
func isTransientStorageError(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") || // serialization_failure
		strings.Contains(msg, "SQLSTATE 40P01") || // deadlock_detected
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
