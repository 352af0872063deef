package document

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

const brazilianDate = "02/01/2006"

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Money formats an amount as "R$ 1.234,56".
func Money(d decimal.Decimal) string {
	return "R$ " + printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Quantity prints a quantity with a decimal comma and no trailing zeros.
func Quantity(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// Date prints a calendar date as dd/mm/yyyy.
func Date(d shared.Date) string {
	return d.Format(brazilianDate)
}

// TaxID masks CPF (11 digits) and CNPJ (14 digits); anything else is returned as is.
func TaxID(digits string) string {
	switch len(digits) {
	case 11:
		return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	case 14:
		return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:]
	default:
		return digits
	}
}
