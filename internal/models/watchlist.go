package models

// WatchlistItem pins a stock to a user's dashboard. Watched stocks get their
// price refreshed lazily on read rather than by the global ticker.
type WatchlistItem struct {
	Base
	UserID  uint `gorm:"not null;uniqueIndex:uq_watchlist_user_stock" json:"user_id"`
	StockID uint `gorm:"not null;uniqueIndex:uq_watchlist_user_stock" json:"stock_id"`

	Stock Stock `gorm:"foreignKey:StockID" json:"stock"`
}
