// Package shared holds the pricing formula used by quotes, drafts and documents.
package shared

import "github.com/shopspring/decimal"

// Decimal places persisted for amounts, quantities and discount percentages.
const (
	MoneyPlaces    = 2
	QuantityPlaces = 3
	PercentPlaces  = 2
)

var hundred = decimal.NewFromInt(100)

// Line is the minimal priced line the total formula needs.
type Line struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent *decimal.Decimal
}

func discountOf(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return *p
}

// DiscountedUnitPrice returns price reduced by discountPercent (nil means no discount).
func DiscountedUnitPrice(price decimal.Decimal, discountPercent *decimal.Decimal) decimal.Decimal {
	return price.Sub(price.Mul(discountOf(discountPercent)).Div(hundred))
}

// LineSubtotal is quantity × unit price × (1 − discount/100).
func LineSubtotal(l Line) decimal.Decimal {
	return l.Quantity.Mul(DiscountedUnitPrice(l.UnitPrice, l.DiscountPercent))
}

// ComputeTotal sums the discounted subtotals and rounds the result to cents.
// The result depends only on the input lines.
func ComputeTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineSubtotal(l))
	}
	return total.Round(MoneyPlaces)
}
