package company

// Profile is the issuing company shown on every quote document. There is exactly
// one profile row.
type Profile struct {
	TradeName    string `json:"trade_name"`
	LegalName    string `json:"legal_name"`
	TaxID        string `json:"tax_id"`
	FullAddress  string `json:"full_address"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
	Website      string `json:"website"`
	LogoURL      string `json:"logo_url"`
}

type ProfileRequest struct {
	TradeName    string `json:"trade_name" validate:"required,max=255"`
	LegalName    string `json:"legal_name" validate:"max=255"`
	TaxID        string `json:"tax_id" validate:"omitempty,len=14"`
	FullAddress  string `json:"full_address"`
	ContactPhone string `json:"contact_phone" validate:"max=20"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	Website      string `json:"website" validate:"omitempty,url"`
	LogoURL      string `json:"logo_url" validate:"omitempty,url"`
}
