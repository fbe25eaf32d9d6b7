package suite

import (
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mybank/expense-contract-tests/oracle"
)

// DoValidationTests checks the local oracle against the rules the service is
// documented to enforce. Nothing here touches the network; these scenarios
// exist so that a drift between the oracle and the service shows up as a
// named scenario failure rather than as mysterious CRUD breakage.
func DoValidationTests(t *T) {
	t.Run("email format", func(t *T) {
		assert.True(t, oracle.IsEmailValid("user@example.com"))
		assert.True(t, oracle.IsEmailValid("smokeuser+abc123@test.com"))
		assert.False(t, oracle.IsEmailValid("not-an-email"))
		assert.False(t, oracle.IsEmailValid(""))
	})

	t.Run("password length", func(t *T) {
		assert.False(t, oracle.IsPasswordValid("123"))
		assert.True(t, oracle.IsPasswordValid("password123"))
	})

	t.Run("amount parsing is lenient", func(t *T) {
		assert.Equal(t, "100.50", oracle.ParseAmount("100.50").Text('f'))
		assert.True(t, oracle.ParseAmount("not-a-number").IsZero())
	})

	t.Run("currency formatting", func(t *T) {
		assert.Equal(t, "12.00", oracle.FormatCurrency("12"))
	})

	t.Run("rounding is half-up", func(t *T) {
		assert.Equal(t, "2.35", oracle.Round("2.345", 2))
	})

	t.Run("date parsing", func(t *T) {
		d := oracle.ParseDate("2025-09-08")
		assert.Equal(t, 2025, d.Year())
		assert.Equal(t, time.September, d.Month())
		assert.Equal(t, 8, d.Day())
	})

	t.Run("product names", func(t *T) {
		assert.True(t, oracle.IsProductNameValid("Product_1"))
		assert.True(t, oracle.IsProductNameValid("Product-2"))
		assert.False(t, oracle.IsProductNameValid("Product@3"))
	})

	t.Run("capitalize", func(t *T) {
		assert.Equal(t, "Hello", oracle.Capitalize("hello"))
	})

	t.Run("configured bounds are sane", func(t *T) {
		cfg := t.Config()
		assert.True(t, oracle.AmountWithinBounds(cfg.MinAmount, cfg.MinAmount, cfg.MaxAmount))
		assert.True(t, oracle.AmountWithinBounds(cfg.MaxAmount, cfg.MinAmount, cfg.MaxAmount))
	})
}
