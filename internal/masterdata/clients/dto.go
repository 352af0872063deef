package clients

type ClientRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	TaxID      string `json:"tax_id" validate:"omitempty,len=11|len=14"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"max=20"`
	PostalCode string `json:"postal_code" validate:"max=10"`
	Street     string `json:"street"`
	Number     string `json:"number" validate:"max=20"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state" validate:"max=2"`
}
