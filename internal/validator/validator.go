// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// symbolRegex matches valid stock symbols: 2-10 uppercase English letters.
var symbolRegex = regexp.MustCompile(`^[A-Z]{2,10}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("stock_symbol", validateStockSymbol)
		_ = v.RegisterValidation("timeframe", validateTimeframe)
	}
}

// ValidSymbol reports whether s is a valid stock symbol after uppercasing.
func ValidSymbol(s string) bool {
	return symbolRegex.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

func validateStockSymbol(fl validator.FieldLevel) bool {
	return ValidSymbol(fl.Field().String())
}

func validateTimeframe(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "1D", "1W", "1M", "1Y":
		return true
	}
	return false
}
