package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencySymbols maps ISO 4217 codes to display symbols. Codes outside the
// map render with the code itself as a prefix ("CHF 1,250.00").
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "CA$",
	"AUD": "A$",
}

// FormatCurrency renders a monetary amount with its currency symbol, two
// fractional digits and thousands separators, e.g. -1250.5 USD → "-$1,250.50".
// It is a pure function with no side effects.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	prefix := symbol
	if !ok {
		prefix = strings.ToUpper(currency) + " "
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(prefix)
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
