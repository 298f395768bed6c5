package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/services"
)

// WatchlistHandler handles watchlist requests.
type WatchlistHandler struct {
	watchlist services.WatchlistServicer
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlist services.WatchlistServicer) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

// AddToWatchlistRequest represents the payload for watching a symbol.
type AddToWatchlistRequest struct {
	Symbol string `json:"symbol" binding:"required,stock_symbol"`
}

// GetWatchlist returns the user's watched stocks with lazily refreshed prices.
func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	watched, err := h.watchlist.GetWatchlist(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"watchlist": watched})
}

// AddToWatchlist watches a symbol, creating the stock on first reference.
func (h *WatchlistHandler) AddToWatchlist(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddToWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stock, err := h.watchlist.AddToWatchlist(userID, req.Symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"stock": stock})
}

// RemoveFromWatchlist unwatches a stock.
func (h *WatchlistHandler) RemoveFromWatchlist(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stockID, err := parsePathID(c, "stockId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.watchlist.RemoveFromWatchlist(userID, stockID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stock removed from watchlist"})
}
