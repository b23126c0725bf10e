// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ErrValidationFailed is the sentinel wrapped by every validator in this
// package, so callers can distinguish user-correctable input problems from
// storage failures.
var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxTickerLength   = 50
	MaxSourceLength   = 100
	MaxNotesLength    = 500
	MaxCurrencyLength = 10

	// Decimal places carried by each numeric field.
	AmountPlaces   = 2
	PricePlaces    = 2
	QuantityPlaces = 4
)

// AllowedCurrencies are the codes the form offers. The schema accepts
// free-form codes, but the form only ever submits one of these.
var AllowedCurrencies = []string{"EUR", "USD", "GBP", "JPY", "CHF"}

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateCurrency checks that the submitted currency code is one the form offers.
func ValidateCurrency(code string) error {
	for _, c := range AllowedCurrencies {
		if code == c {
			return nil
		}
	}
	return fmt.Errorf("%w: currency %q is not supported", ErrValidationFailed, code)
}

// ParseDecimal parses a submitted numeric field, rounding to the given number
// of decimal places. An empty string parses as zero so that "greater than
// zero" checks produce the field-level message rather than a parse error.
func ParseDecimal(s, fieldName string, places int32) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s (%q) is not a valid number", ErrValidationFailed, fieldName, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return d.Round(places), nil
}

// RequirePositive enforces the strictly-greater-than-zero invariant shared by
// amount, unit price and quantity.
func RequirePositive(d decimal.Decimal, message string) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s", ErrValidationFailed, message)
	}
	return nil
}
