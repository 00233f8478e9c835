package model

import "time"

// Document types (DocTipo) as defined by AFIP.
const (
	DocumentTypeCUIT = 80
	DocumentTypeDNI  = 96
)

const cuitLength = 11

// Customer is the receiver of a receipt.
type Customer struct {
	IdentityDocument string `json:"identity_document"`
	Name             string `json:"name"`
}

// IdentityDocumentType derives the document type from the document length:
// an 11 digit document is a CUIT, anything else a DNI.
func (c *Customer) IdentityDocumentType() int {
	if len(c.IdentityDocument) == cuitLength {
		return DocumentTypeCUIT
	}
	return DocumentTypeDNI
}

// Company is the issuer of a receipt.
type Company struct {
	Name              string    `json:"name"`
	ShortName         string    `json:"short_name"`
	Address           string    `json:"address"`
	CUIT              string    `json:"cuit"`
	GrossIncome       string    `json:"gross_income"`
	VATCategory       string    `json:"vat_category"`
	StartOfOperations time.Time `json:"start_of_operations"`
}

// NewCompany creates a company; an empty short name defaults to the legal name.
func NewCompany(name, shortName, address, cuit, grossIncome, vatCategory string, start time.Time) *Company {
	if shortName == "" {
		shortName = name
	}
	return &Company{
		Name:              name,
		ShortName:         shortName,
		Address:           address,
		CUIT:              cuit,
		GrossIncome:       grossIncome,
		VATCategory:       vatCategory,
		StartOfOperations: start,
	}
}

// PlaceholderCompany stands in for the issuer when a receipt is rebuilt from AFIP,
// which does not return issuer details.
func PlaceholderCompany() *Company {
	return NewCompany("Company", "", "Address", "00000000000", "", "", time.Time{})
}
