// Package currency formats statement amounts in the trial balance
// currency. No FX conversion: amounts stay in the uploaded currency.
package currency

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Supported lists the accepted trial balance currencies.
var Supported = []string{"ILS", "USD", "EUR", "GBP"}

// IsSupported reports whether code is an accepted currency.
func IsSupported(code string) bool {
	for _, c := range Supported {
		if c == code {
			return true
		}
	}
	return false
}

var printer = message.NewPrinter(language.English)

// Format renders an amount with thousands grouping and two decimals,
// prefixed by the currency code: "ILS 1,234.56".
func Format(amount decimal.Decimal, code string) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%s %v", code, number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatAccounting renders like Format but with negatives in
// parentheses, the accounting presentation convention.
func FormatAccounting(amount decimal.Decimal, code string) string {
	if amount.IsNegative() {
		return printer.Sprintf("%s (%v)", code, number.Decimal(absFloat(amount), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	}
	return Format(amount, code)
}

func absFloat(d decimal.Decimal) float64 {
	f, _ := d.Abs().Round(2).Float64()
	return f
}
