package models

import "github.com/shopspring/decimal"

// Wallet holds a user's virtual cash balance. One row per user, created
// lazily with the default starting balance on first access.
type Wallet struct {
	Base
	UserID  uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance"`
}
