// Package export renders analysis reports as CSV, XLSX, or JSON, formats the
// surrounding application can hand to finance teams unchanged.
package export

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as a grouped dollar string, e.g.
// "$12,500.00".
func FormatCurrency(amount float64) string {
	return currencyPrinter.Sprintf("$%v",
		number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
