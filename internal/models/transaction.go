package models

import "github.com/shopspring/decimal"

// TransactionKind represents the side of an executed trade.
type TransactionKind string

const (
	TransactionKindBuy  TransactionKind = "BUY"
	TransactionKindSell TransactionKind = "SELL"
)

// Transaction is one executed trade in the append-only ledger. Rows are
// immutable once written; the recorded price is the server price the trade
// actually settled at.
type Transaction struct {
	Base
	UserID   uint            `gorm:"not null;index" json:"user_id"`
	StockID  uint            `gorm:"not null" json:"stock_id"`
	Kind     TransactionKind `gorm:"not null" json:"kind"`
	Quantity int64           `gorm:"type:bigint;not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price"`

	Stock Stock `gorm:"foreignKey:StockID" json:"stock"`
}
