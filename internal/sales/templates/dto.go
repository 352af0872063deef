package templates

import "github.com/shopspring/decimal"

type ItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
}

type CreateTemplateRequest struct {
	Name        string        `json:"name" validate:"required,max=255"`
	Description string        `json:"description"`
	Items       []ItemRequest `json:"items" validate:"dive"`
	ClauseIDs   []int64       `json:"clause_ids" validate:"unique,dive,gt=0"`
}

// UpdateTemplateRequest replaces the whole template.
type UpdateTemplateRequest = CreateTemplateRequest
