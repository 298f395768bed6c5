package services

import (
	"context"

	"github.com/shopspring/decimal"

	"paperbull/internal/models"
	"paperbull/internal/pagination"
	"paperbull/internal/pricing"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}

// PricePoint is one entry of a synthetic price-history series.
type PricePoint struct {
	Time  string          `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// MarketServicer defines the contract for the market data store: stock
// lookup, search, lazy creation, and the price-write paths.
type MarketServicer interface {
	GetStockByID(id uint) (*models.Stock, error)
	GetStockBySymbol(symbol string) (*models.Stock, error)
	SearchStocks(query string) ([]models.Stock, error)
	// EnsureStock fetches the stock for symbol, creating it with a random
	// base price on first reference. The bool reports whether it was created.
	EnsureStock(symbol string) (*models.Stock, bool, error)
	UpsertPrice(stockID uint, price decimal.Decimal) (*models.Stock, error)
	// UpdateAllPrices applies strategy to every stock as a batch of
	// individually-atomic writes. Returns the number of stocks updated.
	UpdateAllPrices(ctx context.Context, strategy pricing.Strategy) (int, error)
	// RefreshIfStale re-simulates the stock's price via the lazy strategy if
	// the minimum elapsed time has passed since its last update. Returns the
	// (possibly unchanged) stock and the applied change percentage.
	RefreshIfStale(stock *models.Stock) (*models.Stock, decimal.Decimal, error)
	SeedStocks() error
	GenerateHistory(stockID uint, timeframe string) ([]PricePoint, error)
}

// TradeResult is the outcome of an executed buy or sell.
type TradeResult struct {
	// Position is the resulting holding, or nil when a sell closed it.
	Position      *models.Position   `json:"position"`
	Transaction   models.Transaction `json:"transaction"`
	ExecutedPrice decimal.Decimal    `json:"executed_price"`
	// Total is the total cost for a buy, the total proceeds for a sell.
	Total decimal.Decimal `json:"total"`
}

// TradingServicer defines the contract for the trade execution engine and
// its read paths.
type TradingServicer interface {
	Buy(userID, stockID uint, quantity int64) (*TradeResult, error)
	Sell(userID, stockID uint, quantity int64) (*TradeResult, error)
	GetPortfolio(userID uint) ([]models.PositionView, error)
	GetTransactions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// WalletServicer defines the contract for the cash ledger.
type WalletServicer interface {
	GetBalance(userID uint) (decimal.Decimal, error)
	AddFunds(userID uint, amount decimal.Decimal) (decimal.Decimal, error)
	// ResetAccount wipes positions and transactions and restores the default
	// balance, but only while net worth is under the reset threshold.
	ResetAccount(userID uint) (decimal.Decimal, error)
}

// WatchedStock is a watchlist entry projected with its latest price move.
type WatchedStock struct {
	models.Stock
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// WatchlistServicer defines the contract for the per-user watchlist.
type WatchlistServicer interface {
	GetWatchlist(userID uint) ([]WatchedStock, error)
	AddToWatchlist(userID uint, symbol string) (*models.Stock, error)
	RemoveFromWatchlist(userID, stockID uint) error
}
