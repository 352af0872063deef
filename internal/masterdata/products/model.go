package products

import "github.com/shopspring/decimal"

// Product is a catalog entry quoted in line items. Its price and tariff code are
// copied into each line when the line is added.
type Product struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	TariffCode  string          `json:"tariff_code"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
