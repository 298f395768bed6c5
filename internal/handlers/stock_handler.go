package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/services"
)

// StockHandler handles market-data requests.
type StockHandler struct {
	market services.MarketServicer
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(market services.MarketServicer) *StockHandler {
	return &StockHandler{market: market}
}

// EnsureStockRequest represents the payload for referencing a stock by symbol.
type EnsureStockRequest struct {
	Symbol string `json:"symbol" binding:"required,stock_symbol"`
}

// SearchStocks lists stocks matching the query, or all stocks when empty.
func (h *StockHandler) SearchStocks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		query = c.Query("query")
	}

	stocks, err := h.market.SearchStocks(query)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stocks": stocks})
}

// GetStock returns a stock by ID.
func (h *StockHandler) GetStock(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.market.GetStockByID(stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// GetStockPrice returns the current price for a stock.
func (h *StockHandler) GetStockPrice(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.market.GetStockByID(stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            stock.ID,
		"symbol":        stock.Symbol,
		"name":          stock.Name,
		"current_price": stock.CurrentPrice,
		"last_updated":  stock.PriceUpdatedAt,
	})
}

// EnsureStock fetches or lazily creates a stock by symbol.
func (h *StockHandler) EnsureStock(c *gin.Context) {
	var req EnsureStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stock, created, err := h.market.EnsureStock(req.Symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"stock": stock, "created": created})
}

// GetStockHistory returns a synthetic price series for charting.
func (h *StockHandler) GetStockHistory(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	timeframe := c.DefaultQuery("timeframe", "1M")

	series, err := h.market.GenerateHistory(stockID, timeframe)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"timeframe": timeframe, "history": series})
}
