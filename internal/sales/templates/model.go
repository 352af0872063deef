// Package templates manages reusable quote blueprints and expands them into drafts.
package templates

import (
	"github.com/shopspring/decimal"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/clauses"
)

// Item is a template line. Description, UnitPrice and TariffCode reflect the
// current catalog entry and are filled on read.
type Item struct {
	ProductID   int64           `json:"product_id"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TariffCode  string          `json:"tariff_code"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type Clause struct {
	ClauseID int64  `json:"clause_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

type Template struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Items       []Item   `json:"items"`
	Clauses     []Clause `json:"clauses"`
}

// Summary is a list row.
type Summary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ItemCount   int    `json:"item_count"`
	ClauseCount int    `json:"clause_count"`
}

func clauseOf(c Clause) clauses.Clause {
	return clauses.Clause{ID: c.ClauseID, Title: c.Title, Body: c.Body}
}
