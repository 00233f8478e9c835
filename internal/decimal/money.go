// Package decimal holds the money rules of WSFEv1: amounts travel as plain
// decimal strings with two fractional digits.
package decimal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits AFIP accepts for amounts.
const Places = 2

var Zero = decimal.Zero

// Quantize rounds to two decimal places using half-to-even rounding.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Places)
}

// FormatAmount renders an amount the way the web services expect it, e.g. "1234.50".
func FormatAmount(d decimal.Decimal) string {
	return Quantize(d).StringFixed(Places)
}

// ParseAmount reads an amount returned by the web services. AFIP drops
// trailing zeros ("120.5"), so any decimal literal is accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// LineTotal is price times quantity. It is not rounded; totals are
// quantized once, after summing.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive reports d > 0.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}
