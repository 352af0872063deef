package quotes

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/clauses"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/products"
	salesshared "github.com/sistema-orcamento/orcamento/internal/sales/shared"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

var (
	ErrQuoteLocked           = fmt.Errorf("%w: quote is approved or cancelled", shared.ErrInvalidState)
	ErrQuoteExpired          = fmt.Errorf("%w: quote validity date has passed", shared.ErrInvalidState)
	ErrClauseAlreadyAttached = fmt.Errorf("%w: clause already attached", shared.ErrValidation)
	ErrClauseNotAttached     = fmt.Errorf("%w: clause not attached", shared.ErrValidation)
)

// AppendPosition adds a line at the end of the draft.
const AppendPosition = -1

var maxDiscount = decimal.NewFromInt(100)

// LineInput describes a line to add or replace. A nil UnitPrice or TariffCode is
// filled from the product; a nil DiscountPercent means no discount.
type LineInput struct {
	Quantity        decimal.Decimal
	UnitPrice       *decimal.Decimal
	TariffCode      *string
	DiscountPercent *decimal.Decimal
}

// Draft is the in-memory working set of a quote being composed.
type Draft struct {
	Status  Status      `json:"status"`
	Items   []Item      `json:"items"`
	Clauses []ClauseRef `json:"clauses"`
}

// NewDraft returns an empty DRAFT working set.
func NewDraft() *Draft {
	return &Draft{Status: StatusDraft, Items: []Item{}, Clauses: []ClauseRef{}}
}

func (d *Draft) checkEditable() error {
	if d.Status.IsTerminal() {
		return ErrQuoteLocked
	}
	return nil
}

// AddOrUpdateLine appends (position AppendPosition) or replaces the line at position.
// The same product may appear on several lines.
func (d *Draft) AddOrUpdateLine(position int, product products.Product, in LineInput) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be greater than zero", shared.ErrValidation)
	}
	if !shared.HasAtMostPlaces(in.Quantity, salesshared.QuantityPlaces) {
		return fmt.Errorf("%w: quantity allows at most %d decimal places", shared.ErrValidation, salesshared.QuantityPlaces)
	}
	discount := decimal.Zero
	if in.DiscountPercent != nil {
		discount = *in.DiscountPercent
	}
	if discount.IsNegative() || discount.GreaterThan(maxDiscount) {
		return fmt.Errorf("%w: discount must be between 0 and 100", shared.ErrValidation)
	}
	if !shared.HasAtMostPlaces(discount, salesshared.PercentPlaces) {
		return fmt.Errorf("%w: discount allows at most %d decimal places", shared.ErrValidation, salesshared.PercentPlaces)
	}
	price := product.UnitPrice
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: unit price must not be negative", shared.ErrValidation)
		}
		if !shared.HasAtMostPlaces(*in.UnitPrice, salesshared.MoneyPlaces) {
			return fmt.Errorf("%w: unit price allows at most %d decimal places", shared.ErrValidation, salesshared.MoneyPlaces)
		}
		price = *in.UnitPrice
	}
	tariff := product.TariffCode
	if in.TariffCode != nil {
		tariff = *in.TariffCode
	}

	item := Item{
		ProductID:       product.ID,
		Description:     product.Description,
		Quantity:        in.Quantity,
		UnitPrice:       price,
		TariffCode:      tariff,
		DiscountPercent: discount,
	}.withSubtotal()

	switch {
	case position == AppendPosition:
		d.Items = append(d.Items, item)
	case position >= 0 && position < len(d.Items):
		d.Items[position] = item
	default:
		return fmt.Errorf("%w: line position %d out of range", shared.ErrValidation, position)
	}
	return nil
}

// RemoveLine deletes the line at position, keeping the order of the others.
func (d *Draft) RemoveLine(position int) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	if position < 0 || position >= len(d.Items) {
		return fmt.Errorf("%w: line position %d out of range", shared.ErrValidation, position)
	}
	d.Items = append(d.Items[:position], d.Items[position+1:]...)
	return nil
}

// AttachClause appends the clause; a clause can be attached once.
func (d *Draft) AttachClause(c clauses.Clause) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	if d.hasClause(c.ID) {
		return fmt.Errorf("%w: clause %d", ErrClauseAlreadyAttached, c.ID)
	}
	d.Clauses = append(d.Clauses, ClauseRef{ClauseID: c.ID, Title: c.Title, Body: c.Body})
	return nil
}

// DetachClause removes an attached clause.
func (d *Draft) DetachClause(clauseID int64) error {
	if err := d.checkEditable(); err != nil {
		return err
	}
	for i, c := range d.Clauses {
		if c.ClauseID == clauseID {
			d.Clauses = append(d.Clauses[:i], d.Clauses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: clause %d", ErrClauseNotAttached, clauseID)
}

func (d *Draft) hasClause(id int64) bool {
	for _, c := range d.Clauses {
		if c.ClauseID == id {
			return true
		}
	}
	return false
}

// Total is the sum of the discounted line subtotals.
func (d *Draft) Total() decimal.Decimal {
	return ComputeTotal(d.Items)
}

// ComputeTotal applies the shared pricing formula to quote items.
func ComputeTotal(items []Item) decimal.Decimal {
	lines := make([]salesshared.Line, len(items))
	for i, it := range items {
		lines[i] = it.priced()
	}
	return salesshared.ComputeTotal(lines)
}
