// Package oracle provides the stateless predicates and formatters that
// scenarios use to pre-validate inputs locally and to compute the values the
// service is expected to produce. Every function here is total: malformed
// input yields a documented default, never an error, so assertion helpers
// can be composed freely.
package oracle

import (
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

var (
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)
	productNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// decCtx mirrors the service's arithmetic: exact decimals, half-up rounding.
var decCtx = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

const minPasswordLength = 6

// IsEmailValid reports whether the address has the local@domain shape the
// service accepts. The empty string is invalid.
func IsEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

// IsPasswordValid reports whether the service would accept the password.
func IsPasswordValid(password string) bool {
	return len(password) >= minPasswordLength
}

// ParseAmount parses a decimal amount string. Malformed input yields zero
// rather than an error; the service is similarly lenient, and assertion
// helpers stay total.
func ParseAmount(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return new(apd.Decimal)
	}
	return d
}

// FormatCurrency renders an amount string with exactly two fractional
// digits, rounding half-up. FormatCurrency("12") == "12.00".
func FormatCurrency(s string) string {
	return roundDecimal(ParseAmount(s), 2)
}

// Round rounds an amount string half-up to the given number of fractional
// digits. Round("2.345", 2) == "2.35".
func Round(s string, places int) string {
	return roundDecimal(ParseAmount(s), places)
}

func roundDecimal(d *apd.Decimal, places int) string {
	var out apd.Decimal
	_, _ = decCtx.Quantize(&out, d, int32(-places))
	return out.Text('f')
}

// AmountWithinBounds reports whether min <= amount <= max, comparing as
// decimals, not strings.
func AmountWithinBounds(amount, min, max string) bool {
	a := ParseAmount(amount)
	return a.Cmp(ParseAmount(min)) >= 0 && a.Cmp(ParseAmount(max)) <= 0
}

// IsProductNameValid reports whether the product name uses only ASCII
// letters, digits, underscore and hyphen.
func IsProductNameValid(name string) bool {
	return productNamePattern.MatchString(name)
}

// ParseDate parses an ISO-8601 date. The zero time is returned for
// malformed input.
func ParseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Capitalize uppercases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
