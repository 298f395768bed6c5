package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "paperbull/internal/errors"
	"paperbull/internal/services"
)

// WalletHandler handles cash-ledger requests.
type WalletHandler struct {
	wallet services.WalletServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallet services.WalletServicer) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// AddFundsRequest represents the payload for adding virtual cash.
type AddFundsRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// GetBalance returns the user's wallet balance, creating the wallet with the
// default starting balance on first access.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.wallet.GetBalance(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// AddFunds credits a positive amount to the wallet.
func (h *WalletHandler) AddFunds(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	balance, err := h.wallet.AddFunds(userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Funds added", "balance": balance})
}

// ResetAccount wipes the account back to the default starting balance when
// net worth is below the reset threshold.
func (h *WalletHandler) ResetAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.wallet.ResetAccount(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account reset successfully", "balance": balance})
}
