// Package core provides the expense domain types and the input
// validators used by every conversation step.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user-entered text into a positive decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrNotNumeric for text that is not a number and
// ErrNonPositiveAmount for zero or negative values: a recorded expense
// must always be strictly positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNotNumeric
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotNumeric
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return d, nil
}

// FormatAmount renders an amount the way reports and confirmations show
// it: plain decimal string without trailing zero padding.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// Convert multiplies an amount by a conversion rate and rounds half-up
// to two decimal places, the display precision for converted values.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
