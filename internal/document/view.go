// Package document projects persisted quotes into printable documents.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/company"
	"github.com/sistema-orcamento/orcamento/internal/sales/quotes"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// Payment holds the static deposit instructions printed on every quote.
type Payment struct {
	Bank    string `json:"bank"`
	Agency  string `json:"agency"`
	Account string `json:"account"`
	Pix     string `json:"pix"`
}

type Issuer struct {
	Name    string `json:"name"`
	Legal   string `json:"legal_name,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

type Recipient struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	// Contact is the person responsible on the client side, "name (email)".
	Contact string `json:"contact,omitempty"`
}

// Line is a table row. UnitPrice is already discounted.
type Line struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	TariffCode  string          `json:"tariff_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Clause struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Appendix is the trailing page with notes and clause texts.
type Appendix struct {
	Notes   string   `json:"notes,omitempty"`
	Clauses []Clause `json:"clauses,omitempty"`
}

// View is the print model of a quote.
type View struct {
	QuoteID    int64         `json:"quote_id"`
	Number     string        `json:"number"`
	Revision   int           `json:"revision"`
	Status     quotes.Status `json:"status"`
	IssueDate  shared.Date   `json:"issue_date"`
	ValidUntil *shared.Date  `json:"valid_until,omitempty"`
	Issuer     Issuer        `json:"issuer"`
	Client     Recipient     `json:"client"`
	Lines      []Line        `json:"lines"`
	// Total is the persisted quote total, never recomputed here.
	Total    decimal.Decimal `json:"total"`
	Payment  Payment         `json:"payment"`
	Appendix *Appendix       `json:"appendix,omitempty"`
}

// Number formats a quote id as printed, zero-padded to five digits.
func Number(id int64) string {
	return fmt.Sprintf("%05d", id)
}

// ArchiveKey is the object key of the archived PDF for a quote revision.
func ArchiveKey(id int64, revision int) string {
	return fmt.Sprintf("quotes/%s/rev-%d.pdf", Number(id), revision)
}

// Build projects a fully loaded quote. It applies no business rules beyond
// restating each line's discounted values.
func Build(q *quotes.Quote, profile company.Profile, payment Payment, now time.Time) View {
	v := View{
		QuoteID:    q.ID,
		Number:     Number(q.ID),
		Revision:   q.Revision,
		Status:     q.StatusAt(now),
		IssueDate:  shared.NewDate(q.CreatedAt),
		ValidUntil: q.ValidUntil,
		Issuer: Issuer{
			Name:    profile.TradeName,
			Legal:   profile.LegalName,
			TaxID:   profile.TaxID,
			Address: profile.FullAddress,
			Phone:   profile.ContactPhone,
			Email:   profile.ContactEmail,
			Website: profile.Website,
			LogoURL: profile.LogoURL,
		},
		Lines:   make([]Line, 0, len(q.Items)),
		Total:   q.Total,
		Payment: payment,
	}
	if q.Client != nil {
		v.Client = Recipient{
			Name:    q.Client.Name,
			TaxID:   q.Client.TaxID,
			Address: q.Client.Address(),
			Phone:   q.Client.Phone,
			Email:   q.Client.Email,
		}
	}
	v.Client.Contact = contact(q.ContactName, q.ContactEmail)

	for i, it := range q.Items {
		unit := it.DiscountedUnitPrice()
		v.Lines = append(v.Lines, Line{
			Index:       i + 1,
			Description: it.Description,
			TariffCode:  it.TariffCode,
			Quantity:    it.Quantity,
			UnitPrice:   unit,
			Subtotal:    unit.Mul(it.Quantity),
		})
	}

	notes := strings.TrimSpace(q.Notes)
	if notes != "" || len(q.Clauses) > 0 {
		v.Appendix = &Appendix{Notes: notes}
		for _, c := range q.Clauses {
			v.Appendix.Clauses = append(v.Appendix.Clauses, Clause{Title: c.Title, Body: c.Body})
		}
	}
	return v
}

func contact(name, email string) string {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	switch {
	case name != "" && email != "":
		return name + " (" + email + ")"
	case name != "":
		return name
	default:
		return email
	}
}
