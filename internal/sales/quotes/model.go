package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/clients"
	salesshared "github.com/sistema-orcamento/orcamento/internal/sales/shared"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusCancelled Status = "CANCELLED"
	// StatusExpired is never stored; it is derived from a DRAFT whose validity date has passed.
	StatusExpired Status = "EXPIRED"
)

// IsTerminal reports whether no further transition or edit is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// Item is a quote line. UnitPrice and TariffCode are snapshots taken when the line
// was added; later catalog changes do not affect them.
type Item struct {
	ProductID       int64           `json:"product_id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TariffCode      string          `json:"tariff_code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

func (it Item) priced() salesshared.Line {
	discount := it.DiscountPercent
	return salesshared.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, DiscountPercent: &discount}
}

// DiscountedUnitPrice is the unit price after the line discount.
func (it Item) DiscountedUnitPrice() decimal.Decimal {
	discount := it.DiscountPercent
	return salesshared.DiscountedUnitPrice(it.UnitPrice, &discount)
}

// withSubtotal returns the item with Subtotal recomputed from its own fields.
func (it Item) withSubtotal() Item {
	it.Subtotal = salesshared.LineSubtotal(it.priced())
	return it
}

// ClauseRef is a clause attached to a quote, carried with its text for display.
type ClauseRef struct {
	ClauseID int64  `json:"clause_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Author is the staff member who created a quote.
type Author struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Quote is a persisted proposal with its line items and clauses.
type Quote struct {
	ID              int64           `json:"id"`
	ClientID        int64           `json:"client_id"`
	Client          *clients.Client `json:"client,omitempty"`
	AuthorID        *int64          `json:"author_id,omitempty"`
	Author          *Author         `json:"author,omitempty"`
	Status          Status          `json:"status"`
	EffectiveStatus Status          `json:"effective_status"`
	Revision        int             `json:"revision"`
	ValidUntil      *shared.Date    `json:"valid_until,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ContactName     string          `json:"contact_name,omitempty"`
	ContactEmail    string          `json:"contact_email,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Total           decimal.Decimal `json:"total"`
	Items           []Item          `json:"items"`
	Clauses         []ClauseRef     `json:"clauses"`
}

// IsExpired reports whether a stored DRAFT has a validity date before the calendar day of now.
func (q *Quote) IsExpired(now time.Time) bool {
	return isExpired(q.Status, q.ValidUntil, now)
}

// StatusAt derives the status shown to callers at the given instant.
func (q *Quote) StatusAt(now time.Time) Status {
	return deriveStatus(q.Status, q.ValidUntil, now)
}

func isExpired(stored Status, validUntil *shared.Date, now time.Time) bool {
	return stored == StatusDraft && validUntil != nil && validUntil.Before(shared.NewDate(now))
}

func deriveStatus(stored Status, validUntil *shared.Date, now time.Time) Status {
	if isExpired(stored, validUntil, now) {
		return StatusExpired
	}
	return stored
}

// Summary is a list row.
type Summary struct {
	ID              int64           `json:"id"`
	ClientID        int64           `json:"client_id"`
	ClientName      string          `json:"client_name"`
	AuthorName      string          `json:"author_name,omitempty"`
	Status          Status          `json:"status"`
	EffectiveStatus Status          `json:"effective_status"`
	Revision        int             `json:"revision"`
	ValidUntil      *shared.Date    `json:"valid_until,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Total           decimal.Decimal `json:"total"`
}
