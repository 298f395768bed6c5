package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/models"
	"paperbull/internal/pricing"
	"paperbull/internal/services"
)

// --- mock market service ---

type mockMarketService struct {
	getStockByIDFn     func(id uint) (*models.Stock, error)
	getStockBySymbolFn func(symbol string) (*models.Stock, error)
	searchStocksFn     func(query string) ([]models.Stock, error)
	ensureStockFn      func(symbol string) (*models.Stock, bool, error)
	generateHistoryFn  func(stockID uint, timeframe string) ([]services.PricePoint, error)
}

func (m *mockMarketService) GetStockByID(id uint) (*models.Stock, error) {
	if m.getStockByIDFn != nil {
		return m.getStockByIDFn(id)
	}
	return &models.Stock{}, nil
}

func (m *mockMarketService) GetStockBySymbol(symbol string) (*models.Stock, error) {
	if m.getStockBySymbolFn != nil {
		return m.getStockBySymbolFn(symbol)
	}
	return &models.Stock{}, nil
}

func (m *mockMarketService) SearchStocks(query string) ([]models.Stock, error) {
	if m.searchStocksFn != nil {
		return m.searchStocksFn(query)
	}
	return []models.Stock{}, nil
}

func (m *mockMarketService) EnsureStock(symbol string) (*models.Stock, bool, error) {
	if m.ensureStockFn != nil {
		return m.ensureStockFn(symbol)
	}
	return &models.Stock{}, false, nil
}

func (m *mockMarketService) UpsertPrice(stockID uint, price decimal.Decimal) (*models.Stock, error) {
	return &models.Stock{}, nil
}

func (m *mockMarketService) UpdateAllPrices(ctx context.Context, strategy pricing.Strategy) (int, error) {
	return 0, nil
}

func (m *mockMarketService) RefreshIfStale(stock *models.Stock) (*models.Stock, decimal.Decimal, error) {
	return stock, decimal.Zero, nil
}

func (m *mockMarketService) SeedStocks() error { return nil }

func (m *mockMarketService) GenerateHistory(stockID uint, timeframe string) ([]services.PricePoint, error) {
	if m.generateHistoryFn != nil {
		return m.generateHistoryFn(stockID, timeframe)
	}
	return []services.PricePoint{}, nil
}

// verify interface compliance
var _ services.MarketServicer = (*mockMarketService)(nil)

func setupStockRouter(handler *StockHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.GET("/stocks/search", handler.SearchStocks)
	auth.POST("/stocks", handler.EnsureStock)
	auth.GET("/stocks/:id", handler.GetStock)
	auth.GET("/stocks/:id/price", handler.GetStockPrice)
	auth.GET("/stocks/:id/history", handler.GetStockHistory)
	return r
}

// --- tests ---

func TestStockHandler_SearchStocks(t *testing.T) {
	t.Run("returns 200 with matches", func(t *testing.T) {
		var gotQuery string
		marketSvc := &mockMarketService{
			searchStocksFn: func(query string) ([]models.Stock, error) {
				gotQuery = query
				return []models.Stock{
					{Base: models.Base{ID: 1}, Symbol: "TCS"},
				}, nil
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		rec := doRequest(r, "GET", "/stocks/search?q=tcs", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotQuery != "tcs" {
			t.Errorf("expected query tcs, got %q", gotQuery)
		}
		result := parseJSON(t, rec)
		stocks := result["stocks"].([]interface{})
		if len(stocks) != 1 {
			t.Fatalf("expected 1 stock, got %d", len(stocks))
		}
	})

	t.Run("accepts query param alias", func(t *testing.T) {
		var gotQuery string
		marketSvc := &mockMarketService{
			searchStocksFn: func(query string) ([]models.Stock, error) {
				gotQuery = query
				return []models.Stock{}, nil
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		doRequest(r, "GET", "/stocks/search?query=infy", "")

		if gotQuery != "infy" {
			t.Errorf("expected query infy, got %q", gotQuery)
		}
	})
}

func TestStockHandler_GetStock(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		marketSvc := &mockMarketService{
			getStockByIDFn: func(id uint) (*models.Stock, error) {
				return &models.Stock{
					Base:         models.Base{ID: id},
					Symbol:       "INFY",
					CurrentPrice: decimal.NewFromInt(1500),
				}, nil
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		rec := doRequest(r, "GET", "/stocks/4", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		stock := result["stock"].(map[string]interface{})
		if stock["symbol"] != "INFY" {
			t.Errorf("expected INFY, got %v", stock["symbol"])
		}
	})

	t.Run("returns 404 for unknown stock", func(t *testing.T) {
		marketSvc := &mockMarketService{
			getStockByIDFn: func(uint) (*models.Stock, error) {
				return nil, apperrors.ErrStockNotFound
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		rec := doRequest(r, "GET", "/stocks/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "STOCK_NOT_FOUND")
	})

	t.Run("returns 400 on non-numeric id", func(t *testing.T) {
		handler := NewStockHandler(&mockMarketService{})
		r := setupStockRouter(handler)

		rec := doRequest(r, "GET", "/stocks/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestStockHandler_EnsureStock(t *testing.T) {
	t.Run("returns 201 when created", func(t *testing.T) {
		marketSvc := &mockMarketService{
			ensureStockFn: func(symbol string) (*models.Stock, bool, error) {
				return &models.Stock{Base: models.Base{ID: 9}, Symbol: "ZOMATO"}, true, nil
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		rec := doRequest(r, "POST", "/stocks", `{"symbol":"ZOMATO"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["created"] != true {
			t.Errorf("expected created=true, got %v", result["created"])
		}
	})

	t.Run("returns 200 when it already exists", func(t *testing.T) {
		marketSvc := &mockMarketService{
			ensureStockFn: func(symbol string) (*models.Stock, bool, error) {
				return &models.Stock{Base: models.Base{ID: 9}, Symbol: "TCS"}, false, nil
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		rec := doRequest(r, "POST", "/stocks", `{"symbol":"TCS"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on invalid symbol", func(t *testing.T) {
		handler := NewStockHandler(&mockMarketService{})
		r := setupStockRouter(handler)

		for _, body := range []string{`{"symbol":"A"}`, `{"symbol":"AB12"}`, `{}`} {
			rec := doRequest(r, "POST", "/stocks", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %s: expected 400, got %d", body, rec.Code)
			}
		}
	})
}

func TestStockHandler_GetStockHistory(t *testing.T) {
	t.Run("defaults to 1M", func(t *testing.T) {
		var gotTimeframe string
		marketSvc := &mockMarketService{
			generateHistoryFn: func(_ uint, timeframe string) ([]services.PricePoint, error) {
				gotTimeframe = timeframe
				return []services.PricePoint{
					{Time: "2026-08-29", Price: decimal.NewFromInt(100)},
				}, nil
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		rec := doRequest(r, "GET", "/stocks/1/history", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotTimeframe != "1M" {
			t.Errorf("expected default timeframe 1M, got %q", gotTimeframe)
		}
	})

	t.Run("returns 400 on unsupported timeframe", func(t *testing.T) {
		marketSvc := &mockMarketService{
			generateHistoryFn: func(uint, string) ([]services.PricePoint, error) {
				return nil, apperrors.ErrInvalidTimeframe
			},
		}
		handler := NewStockHandler(marketSvc)
		r := setupStockRouter(handler)

		rec := doRequest(r, "GET", "/stocks/1/history?timeframe=5Y", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TIMEFRAME")
	})
}
