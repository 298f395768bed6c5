package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock represents a tradable simulated security. Rows are shared across all
// users: the price engine and the lazy-creation path write, everyone else reads.
// Stocks are never deleted.
type Stock struct {
	Base
	Symbol       string          `gorm:"uniqueIndex;not null" json:"symbol"`
	Name         string          `gorm:"not null" json:"name"`
	CurrentPrice decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"current_price"`
	Volume       int64           `gorm:"type:bigint;not null;default:0" json:"volume"`
	PriceUpdatedAt time.Time     `gorm:"not null" json:"price_updated_at"`
}
