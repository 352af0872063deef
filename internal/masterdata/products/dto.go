package products

import "github.com/shopspring/decimal"

type ProductRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	TariffCode  string          `json:"tariff_code" validate:"max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}
