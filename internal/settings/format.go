package settings

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[currency.Unit]string{
	currency.MustParseISO("PHP"): "₱",
	currency.USD: "$",
}

var printer = message.NewPrinter(language.English)

// FormatCurrency renders amount with two fraction digits, digit grouping and
// the currency symbol, e.g. ₱1,234.50. Unknown codes fall back to PHP.
func FormatCurrency(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.MustParseISO("PHP")
	}
	symbol, ok := symbols[unit]
	if !ok {
		symbol = unit.String() + " "
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = math.Abs(amount)
	}
	return sign + symbol + printer.Sprintf("%.2f", amount)
}

// FormatNumber renders value with digit grouping.
func FormatNumber(value int) string {
	return printer.Sprintf("%d", value)
}
