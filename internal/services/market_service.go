package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/logger"
	"paperbull/internal/models"
	"paperbull/internal/pricing"
	"paperbull/internal/validator"
)

// staleAfter is the minimum elapsed time before a lazy read refreshes a price.
const staleAfter = 3 * time.Second

// searchLimit caps search results for a non-empty query.
const searchLimit = 20

// seedStocks are created at process start so the market is never empty.
var seedStocks = []struct {
	Symbol string
	Name   string
}{
	{"RELIANCE", "Reliance Industries Limited"},
	{"TCS", "Tata Consultancy Services Limited"},
	{"INFY", "Infosys Limited"},
	{"HDFC", "HDFC Bank Limited"},
	{"ICICIBANK", "ICICI Bank Limited"},
	{"SBIN", "State Bank of India"},
	{"BHARTIARTL", "Bharti Airtel Limited"},
	{"ITC", "ITC Limited"},
	{"KOTAKBANK", "Kotak Mahindra Bank Limited"},
	{"LT", "Larsen & Toubro Limited"},
	{"WIPRO", "Wipro Limited"},
	{"ASIANPAINT", "Asian Paints Limited"},
}

// marketService handles stock lookup, search, lazy creation, and price writes.
type marketService struct {
	db   *gorm.DB
	lazy pricing.Strategy
	now  func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMarketService creates a new MarketServicer. A nil lazy strategy gets the
// default weighted-bands model used by the watchlist refresh path.
func NewMarketService(db *gorm.DB, lazy pricing.Strategy) MarketServicer {
	if lazy == nil {
		lazy = pricing.NewWeightedBands(nil)
	}
	return &marketService{
		db:   db,
		lazy: lazy,
		now:  time.Now,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetStockByID returns a stock by its ID.
func (s *marketService) GetStockByID(id uint) (*models.Stock, error) {
	var stock models.Stock
	if err := s.db.First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// GetStockBySymbol returns a stock by symbol. Lookups are case-insensitive.
func (s *marketService) GetStockBySymbol(symbol string) (*models.Stock, error) {
	normalized := normalizeSymbol(symbol)

	var stock models.Stock
	if err := s.db.Where("symbol = ?", normalized).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// SearchStocks matches substrings of symbol or display name, case-insensitive,
// ordered by symbol ascending. A non-empty query is capped at searchLimit
// results; an empty query lists everything.
func (s *marketService) SearchStocks(query string) ([]models.Stock, error) {
	base := s.db.Model(&models.Stock{}).Order("symbol ASC")

	query = strings.ToUpper(strings.TrimSpace(query))
	if query != "" {
		pattern := "%" + query + "%"
		base = base.Where("UPPER(symbol) LIKE ? OR UPPER(name) LIKE ?", pattern, pattern).
			Limit(searchLimit)
	}

	var stocks []models.Stock
	if err := base.Find(&stocks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stocks, nil
}

// EnsureStock fetches the stock for symbol, creating it on first reference
// with a random base price. Existing stocks get the lazy staleness refresh so
// a read never returns a price frozen since process start.
func (s *marketService) EnsureStock(symbol string) (*models.Stock, bool, error) {
	if !validator.ValidSymbol(symbol) {
		return nil, false, apperrors.ErrInvalidSymbol
	}
	normalized := normalizeSymbol(symbol)

	var stock models.Stock
	err := s.db.Where("symbol = ?", normalized).First(&stock).Error
	if err == nil {
		refreshed, _, rerr := s.RefreshIfStale(&stock)
		if rerr != nil {
			return nil, false, rerr
		}
		return refreshed, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stock = models.Stock{
		Symbol:         normalized,
		Name:           fmt.Sprintf("%s Corporation Limited", normalized),
		CurrentPrice:   s.randomBasePrice(),
		Volume:         s.randomVolume(),
		PriceUpdatedAt: s.now(),
	}
	if err := s.db.Create(&stock).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("created stock", "symbol", stock.Symbol, "base_price", stock.CurrentPrice)
	return &stock, true, nil
}

// UpsertPrice writes a new price for the stock, clamped to the price floor
// and rounded to 2 decimal places.
func (s *marketService) UpsertPrice(stockID uint, price decimal.Decimal) (*models.Stock, error) {
	stock, err := s.GetStockByID(stockID)
	if err != nil {
		return nil, err
	}

	price = price.Round(2)
	if price.LessThan(pricing.RandomWalkFloor) {
		price = pricing.RandomWalkFloor
	}

	updates := map[string]interface{}{
		"current_price":    price,
		"price_updated_at": s.now(),
	}
	if err := s.db.Model(stock).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stock, nil
}

// UpdateAllPrices applies strategy to every stock. Each write is its own
// statement: a failed row is logged and skipped, the rest of the batch
// proceeds. Returns the number of stocks updated.
func (s *marketService) UpdateAllPrices(ctx context.Context, strategy pricing.Strategy) (int, error) {
	var stocks []models.Stock
	if err := s.db.WithContext(ctx).Find(&stocks).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updated := 0
	for i := range stocks {
		move := strategy.Next(stocks[i].CurrentPrice)
		err := s.db.WithContext(ctx).Model(&stocks[i]).Updates(map[string]interface{}{
			"current_price":    move.Price,
			"price_updated_at": s.now(),
		}).Error
		if err != nil {
			logger.Get().Errorw("price update failed", "symbol", stocks[i].Symbol, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// RefreshIfStale re-simulates the price via the lazy strategy when the last
// update is at least staleAfter old. Fresh stocks are returned unchanged with
// a zero change percentage.
func (s *marketService) RefreshIfStale(stock *models.Stock) (*models.Stock, decimal.Decimal, error) {
	if s.now().Sub(stock.PriceUpdatedAt) < staleAfter {
		return stock, decimal.Zero, nil
	}

	move := s.lazy.Next(stock.CurrentPrice)
	updates := map[string]interface{}{
		"current_price":    move.Price,
		"price_updated_at": s.now(),
	}
	if err := s.db.Model(stock).Updates(updates).Error; err != nil {
		return nil, decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stock, move.ChangePercent, nil
}

// SeedStocks creates the seed list, skipping symbols that already exist.
func (s *marketService) SeedStocks() error {
	for _, seed := range seedStocks {
		stock := models.Stock{
			Symbol:         seed.Symbol,
			Name:           seed.Name,
			CurrentPrice:   s.randomBasePrice(),
			Volume:         s.randomVolume(),
			PriceUpdatedAt: s.now(),
		}
		result := s.db.Where("symbol = ?", seed.Symbol).FirstOrCreate(&stock)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
	}
	return nil
}

// GenerateHistory produces a synthetic random-walk price series for charting.
// The series is cosmetic: regenerated per request, with the last point pinned
// to the live price.
func (s *marketService) GenerateHistory(stockID uint, timeframe string) ([]PricePoint, error) {
	stock, err := s.GetStockByID(stockID)
	if err != nil {
		return nil, err
	}

	var points int
	var step time.Duration
	switch timeframe {
	case "1D":
		points, step = 24, time.Hour
	case "1W":
		points, step = 7, 24*time.Hour
	case "1M", "":
		points, step = 30, 24*time.Hour
	case "1Y":
		points, step = 52, 7*24*time.Hour
	default:
		return nil, apperrors.ErrInvalidTimeframe
	}

	current, _ := stock.CurrentPrice.Float64()

	s.mu.Lock()
	last := current * (0.8 + s.rng.Float64()*0.4)
	draws := make([]float64, points+1)
	for i := range draws {
		draws[i] = s.rng.Float64() - 0.5
	}
	s.mu.Unlock()

	now := s.now()
	series := make([]PricePoint, 0, points+1)
	for i := points; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * step)

		// Random walk with ~2% volatility per point.
		last += last * 0.02 * draws[points-i]
		if last < 1 {
			last = 1
		}

		label := at.Format("2006-01-02")
		if timeframe == "1D" {
			label = at.Format("2006-01-02 15:00")
		}
		series = append(series, PricePoint{Time: label, Price: decimal.NewFromFloat(last).Round(2)})
	}

	series[len(series)-1].Price = stock.CurrentPrice
	return series, nil
}

func (s *marketService) randomBasePrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decimal.NewFromInt(int64(s.rng.Intn(900) + 100))
}

func (s *marketService) randomVolume() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.rng.Intn(10_000_000) + 1_000_000)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
