// Package money parses user-typed prices and renders amounts for display.
//
// Input accepts a single decimal separator, either '.' or ','; grouping
// separators are not supported. The canonical rendering always uses '.'
// and exactly two fractional digits.
package money

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol prefixes every rendered amount.
const Symbol = "$"

var ErrInvalidPrice = errors.New("invalid price")

var priceRe = regexp.MustCompile(`^(?:\d+(?:\.\d*)?|\.\d+)$`)

// ParsePrice converts price text such as "25.99", "25,99" or "$4" into a
// non-negative decimal.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"R$", Symbol} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	if strings.Count(s, ",")+strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidPrice
	}
	s = strings.Replace(s, ",", ".", 1)
	if !priceRe.MatchString(s) {
		return decimal.Zero, ErrInvalidPrice
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	return d, nil
}

// Format renders d with two fractional digits, rounding half away from zero.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatFloat renders a derived amount the same way Format does.
func FormatFloat(f float64) string {
	return Format(decimal.NewFromFloat(f))
}

// Display renders d prefixed with the currency symbol, e.g. "$25.99".
func Display(d decimal.Decimal) string {
	return Symbol + Format(d)
}

// DisplayFloat renders a derived amount prefixed with the currency symbol.
func DisplayFloat(f float64) string {
	return Symbol + FormatFloat(f)
}
