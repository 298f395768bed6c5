// Package errors provides custom error types for the Paperbull API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Stock errors.
var (
	ErrStockNotFound    = &AppError{Code: "STOCK_NOT_FOUND", Message: "Stock not found", StatusCode: http.StatusNotFound}
	ErrInvalidSymbol    = &AppError{Code: "INVALID_SYMBOL", Message: "Symbol must be 2-10 uppercase letters", StatusCode: http.StatusBadRequest}
	ErrAlreadyWatched   = &AppError{Code: "ALREADY_WATCHED", Message: "Stock already in watchlist", StatusCode: http.StatusConflict}
	ErrNotWatched       = &AppError{Code: "NOT_WATCHED", Message: "Stock not in watchlist", StatusCode: http.StatusNotFound}
	ErrInvalidTimeframe = &AppError{Code: "INVALID_TIMEFRAME", Message: "Unsupported history timeframe", StatusCode: http.StatusBadRequest}
)

// Trading errors.
var (
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient wallet balance", StatusCode: http.StatusBadRequest}
	ErrInsufficientShares  = &AppError{Code: "INSUFFICIENT_SHARES", Message: "Insufficient shares for this sale", StatusCode: http.StatusBadRequest}
	ErrNotInPortfolio      = &AppError{Code: "NOT_IN_PORTFOLIO", Message: "You do not own any shares of this stock", StatusCode: http.StatusBadRequest}
	ErrStorageConflict     = &AppError{Code: "STORAGE_CONFLICT", Message: "The trade could not be committed, please retry", StatusCode: http.StatusConflict}
)

// Wallet errors.
var (
	ErrResetNotAllowed = &AppError{Code: "RESET_NOT_ALLOWED", Message: "Account reset not allowed", StatusCode: http.StatusBadRequest}
)
