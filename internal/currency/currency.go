// Package currency defines the closed set of currencies an invoice may be
// denominated in and the display rounding rules for each.
//
// Currency never participates in totals arithmetic. It only decides how many
// fraction digits a stored amount is rounded to when formatted for
// presentation.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Code is an ISO 4217 currency code from the supported set.
type Code string

const (
	USD Code = "USD"
	JPY Code = "JPY"
	AED Code = "AED"
	INR Code = "INR"
)

// Default is the currency assumed when a caller supplies none or an
// unsupported code. Unknown codes are coerced, never rejected.
const Default = USD

var symbols = map[Code]string{
	USD: "$",
	JPY: "¥",
	AED: "د.إ",
	INR: "₹",
}

// IsValid reports whether c is one of the supported currency codes.
func IsValid(c Code) bool {
	switch c {
	case USD, JPY, AED, INR:
		return true
	}
	return false
}

// Coerce maps an arbitrary caller-supplied code to a supported one. Codes
// outside the supported set fall back to Default.
func Coerce(raw string) Code {
	c := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if !IsValid(c) {
		return Default
	}
	return c
}

// FractionDigits returns the number of fraction digits used when displaying
// amounts in c. JPY has no minor unit.
func FractionDigits(c Code) int32 {
	if c == JPY {
		return 0
	}
	return 2
}

// Round rounds an amount to the display precision of c. Stored amounts keep
// full precision; rounding happens only at the presentation boundary.
func Round(amount decimal.Decimal, c Code) decimal.Decimal {
	return amount.Round(FractionDigits(c))
}

// Format renders an amount with the currency symbol and display precision,
// e.g. "$100.00" or "¥1000".
func Format(amount decimal.Decimal, c Code) string {
	if !IsValid(c) {
		c = Default
	}
	return symbols[c] + Round(amount, c).StringFixed(FractionDigits(c))
}
