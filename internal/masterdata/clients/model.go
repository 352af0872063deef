package clients

import (
	"strings"
)

// Client is the customer a quote is addressed to. TaxID (CPF or CNPJ) and Phone are
// stored as digits only.
type Client struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
}

// Address joins the non-empty address parts with ", " in document order:
// street, number, district, city, state, postal code, complement.
func (c Client) Address() string {
	parts := []string{c.Street, c.Number, c.District, c.City, c.State, c.PostalCode, c.Complement}
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
