package models

import "github.com/shopspring/decimal"

// Position represents a user's holding in one stock. A row exists iff the
// held quantity is positive: selling the full quantity deletes the row
// instead of leaving a zero-quantity record.
type Position struct {
	Base
	UserID      uint            `gorm:"not null;uniqueIndex:uq_positions_user_stock" json:"user_id"`
	StockID     uint            `gorm:"not null;uniqueIndex:uq_positions_user_stock" json:"stock_id"`
	Quantity    int64           `gorm:"type:bigint;not null" json:"quantity"`
	AverageCost decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"average_cost"`

	Stock Stock `gorm:"foreignKey:StockID" json:"stock"`
}

// PositionView is a Position projected against the live market price.
// Valuation fields are computed on every read and never persisted.
type PositionView struct {
	Position
	CurrentPrice      decimal.Decimal `json:"current_price"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}
