package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/pagination"
	"paperbull/internal/services"
)

// TradeHandler handles buy/sell execution and the trade read paths.
type TradeHandler struct {
	trading services.TradingServicer
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(trading services.TradingServicer) *TradeHandler {
	return &TradeHandler{trading: trading}
}

// TradeRequest represents the payload for a buy or sell order. Price is
// deliberately absent: settlement always uses the server's current price.
type TradeRequest struct {
	StockID  uint  `json:"stock_id" binding:"required"`
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// Buy executes a buy order at the server's current price.
func (h *TradeHandler) Buy(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.trading.Buy(userID, req.StockID, req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"executed_price": result.ExecutedPrice,
		"total_cost":     result.Total,
		"position":       result.Position,
		"transaction":    result.Transaction,
	})
}

// Sell executes a sell order at the server's current price.
func (h *TradeHandler) Sell(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.trading.Sell(userID, req.StockID, req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"executed_price": result.ExecutedPrice,
		"total_proceeds": result.Total,
		"position":       result.Position,
		"transaction":    result.Transaction,
	})
}

// GetPortfolio returns the user's positions with live valuation.
func (h *TradeHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.trading.GetPortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}

// GetTransactions returns the user's trade history, newest first.
func (h *TradeHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.trading.GetTransactions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
