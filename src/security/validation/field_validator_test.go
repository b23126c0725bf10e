package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("1500.00", "amount", AmountPlaces)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1500")))

	d, err = ParseDecimal("  95.50 ", "unit price", PricePlaces)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("95.5")))

	// Quantities keep four decimal places.
	d, err = ParseDecimal("0.12345", "quantity", QuantityPlaces)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.1235")))
}

func TestParseDecimalEmptyIsZero(t *testing.T) {
	d, err := ParseDecimal("", "amount", AmountPlaces)
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestParseDecimalRejectsGarbage(t *testing.T) {
	_, err := ParseDecimal("abc", "amount", AmountPlaces)
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestParseDecimalRejectsNegative(t *testing.T) {
	_, err := ParseDecimal("-1.00", "amount", AmountPlaces)
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestRequirePositive(t *testing.T) {
	assert.NoError(t, RequirePositive(decimal.RequireFromString("0.01"), "amount"))
	assert.ErrorIs(t, RequirePositive(decimal.Zero, "amount"), ErrValidationFailed)
	assert.ErrorIs(t, RequirePositive(decimal.RequireFromString("-5"), "amount"), ErrValidationFailed)
}

func TestValidateCurrency(t *testing.T) {
	for _, code := range AllowedCurrencies {
		assert.NoError(t, ValidateCurrency(code))
	}
	assert.ErrorIs(t, ValidateCurrency("BRL"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateCurrency(""), ErrValidationFailed)
	assert.ErrorIs(t, ValidateCurrency("eur"), ErrValidationFailed)
}

func TestValidateStringNotEmpty(t *testing.T) {
	assert.NoError(t, ValidateStringNotEmpty("VWCE", "ticker"))
	assert.ErrorIs(t, ValidateStringNotEmpty("", "ticker"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateStringNotEmpty("   ", "ticker"), ErrValidationFailed)
}

func TestValidateStringMaxLength(t *testing.T) {
	assert.NoError(t, ValidateStringMaxLength("short", 10, "notes"))
	assert.ErrorIs(t, ValidateStringMaxLength("toolongvalue", 5, "notes"), ErrValidationFailed)
}

func TestSanitizeFreeText(t *testing.T) {
	assert.Equal(t, "hello", SanitizeFreeText("<script>alert(1)</script>hello"))
	assert.Equal(t, "plain text", SanitizeFreeText("  plain text  "))
	assert.Equal(t, "ab", SanitizeFreeText("a\x00b"))
}
