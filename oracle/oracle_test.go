package oracle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailValid(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.com",
		"user+tag@test.com",
		"u_1-2@sub.domain.org",
	}
	for _, email := range valid {
		assert.True(t, IsEmailValid(email), "should accept %q", email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"@example.com",
		"user@",
		"user name@example.com",
		"user@exa mple.com",
	}
	for _, email := range invalid {
		assert.False(t, IsEmailValid(email), "should reject %q", email)
	}
}

func TestIsPasswordValid(t *testing.T) {
	assert.False(t, IsPasswordValid("123"))
	assert.False(t, IsPasswordValid(""))
	assert.False(t, IsPasswordValid("12345"))
	assert.True(t, IsPasswordValid("123456"))
	assert.True(t, IsPasswordValid("password123"))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, "100.50", ParseAmount("100.50").Text('f'))
	assert.Equal(t, "1000000", ParseAmount("1000000").Text('f'))

	// lenient default: malformed input parses as zero
	assert.True(t, ParseAmount("not-a-number").IsZero())
	assert.True(t, ParseAmount("").IsZero())
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "12.00", FormatCurrency("12"))
	assert.Equal(t, "100.50", FormatCurrency("100.5"))
	assert.Equal(t, "0.00", FormatCurrency("garbage"))
	assert.Equal(t, "2.35", FormatCurrency("2.345"))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, "2.35", Round("2.345", 2))
	assert.Equal(t, "2.34", Round("2.344", 2))
	assert.Equal(t, "3", Round("2.5", 0))
	assert.Equal(t, "2.3", Round("2.25", 1))
}

func TestAmountWithinBounds(t *testing.T) {
	assert.True(t, AmountWithinBounds("1", "1", "1000000"))
	assert.True(t, AmountWithinBounds("1000000", "1", "1000000"))
	assert.True(t, AmountWithinBounds("500.25", "1", "1000000"))
	assert.False(t, AmountWithinBounds("0.99", "1", "1000000"))
	assert.False(t, AmountWithinBounds("1000000.01", "1", "1000000"))
}

func TestIsProductNameValid(t *testing.T) {
	assert.True(t, IsProductNameValid("Product_1"))
	assert.True(t, IsProductNameValid("Product-2"))
	assert.False(t, IsProductNameValid("Product@3"))
	assert.False(t, IsProductNameValid("Product 4"))
	assert.False(t, IsProductNameValid(""))
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2025-09-08")
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.September, d.Month())
	assert.Equal(t, 8, d.Day())

	assert.True(t, ParseDate("09/08/2025").IsZero())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Hello", Capitalize("hello"))
	assert.Equal(t, "Hello", Capitalize("Hello"))
	assert.Equal(t, "", Capitalize(""))
}
