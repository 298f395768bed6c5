package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/models"
)

// watchlistService handles the per-user watchlist. Watched stocks use the
// lazy refresh path: the price is re-simulated on read once it goes stale,
// instead of waiting for the global ticker.
type watchlistService struct {
	db     *gorm.DB
	market MarketServicer
}

// NewWatchlistService creates a new WatchlistServicer.
func NewWatchlistService(db *gorm.DB, market MarketServicer) WatchlistServicer {
	return &watchlistService{db: db, market: market}
}

// GetWatchlist returns the user's watched stocks ordered by symbol, each one
// refreshed through the lazy staleness rule.
func (s *watchlistService) GetWatchlist(userID uint) ([]WatchedStock, error) {
	var items []models.WatchlistItem
	if err := s.db.Preload("Stock").Where("user_id = ?", userID).
		Joins("JOIN stocks ON stocks.id = watchlist_items.stock_id").
		Order("stocks.symbol ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	watched := make([]WatchedStock, 0, len(items))
	for i := range items {
		stock, changePct, err := s.market.RefreshIfStale(&items[i].Stock)
		if err != nil {
			return nil, err
		}
		watched = append(watched, WatchedStock{Stock: *stock, ChangePercent: changePct})
	}
	return watched, nil
}

// AddToWatchlist watches a symbol, lazily creating the stock on first
// reference. Watching the same stock twice is rejected.
func (s *watchlistService) AddToWatchlist(userID uint, symbol string) (*models.Stock, error) {
	stock, _, err := s.market.EnsureStock(symbol)
	if err != nil {
		return nil, err
	}

	var existing models.WatchlistItem
	err = s.db.Where("user_id = ? AND stock_id = ?", userID, stock.ID).First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrAlreadyWatched
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	item := models.WatchlistItem{UserID: userID, StockID: stock.ID}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stock, nil
}

// RemoveFromWatchlist unwatches a stock.
func (s *watchlistService) RemoveFromWatchlist(userID, stockID uint) error {
	result := s.db.Where("user_id = ? AND stock_id = ?", userID, stockID).
		Delete(&models.WatchlistItem{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotWatched
	}
	return nil
}
