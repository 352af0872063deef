package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// LineRequest is a line item on the wire. UnitPrice and TariffCode carry the
// snapshot when an existing quote is re-submitted; omit them to take catalog values.
type LineRequest struct {
	ProductID       int64            `json:"product_id" validate:"required,gt=0"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	TariffCode      *string          `json:"tariff_code,omitempty" validate:"omitempty,max=20"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
}

func (l LineRequest) input() LineInput {
	return LineInput{
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		TariffCode:      l.TariffCode,
		DiscountPercent: l.DiscountPercent,
	}
}

type CreateQuoteRequest struct {
	ClientID     int64         `json:"client_id" validate:"required,gt=0"`
	ValidUntil   *shared.Date  `json:"valid_until,omitempty"`
	Notes        string        `json:"notes"`
	ContactName  string        `json:"contact_name" validate:"max=255"`
	ContactEmail string        `json:"contact_email" validate:"omitempty,email"`
	Items        []LineRequest `json:"items" validate:"required,min=1,dive"`
	ClauseIDs    []int64       `json:"clause_ids" validate:"dive,gt=0"`
}

// UpdateQuoteRequest fully replaces the editable content of a quote.
type UpdateQuoteRequest = CreateQuoteRequest

type ChangeStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// DraftRequest is priced without being persisted.
type DraftRequest struct {
	Items     []LineRequest `json:"items" validate:"dive"`
	ClauseIDs []int64       `json:"clause_ids" validate:"dive,gt=0"`
}

// DraftPreview is a composed draft with its computed total.
type DraftPreview struct {
	*Draft
	Total decimal.Decimal `json:"total"`
}
