package server

import (
	"time"

	"github.com/rezonia/afip-invoicer/internal/fiscalcode"
	"github.com/rezonia/afip-invoicer/internal/model"
)

const dateLayout = "2006-01-02"

// ReceiptResponse is an authorized receipt.
type ReceiptResponse struct {
	Identifier    string         `json:"identifier"`
	PointOfSale   int            `json:"point_of_sale"`
	Type          int            `json:"type"`
	Letter        string         `json:"letter,omitempty"`
	Concept       int            `json:"concept"`
	Number        int64          `json:"number"`
	Date          string         `json:"date"`
	CAE           string         `json:"cae"`
	CAEExpiration string         `json:"cae_expiration"`
	Total         string         `json:"total"`
	Issuer        IssuerOutput   `json:"issuer"`
	Customer      CustomerOutput `json:"customer"`
	Items         []ItemOutput   `json:"items"`
	Code          string         `json:"code,omitempty"`
	Barcode       string         `json:"barcode,omitempty"`
}

// IssuerOutput is the issuing company.
type IssuerOutput struct {
	Name string `json:"name"`
	CUIT string `json:"cuit"`
}

// CustomerOutput is the receipt customer.
type CustomerOutput struct {
	IdentityDocument     string `json:"identity_document"`
	IdentityDocumentType int    `json:"identity_document_type"`
	Name                 string `json:"name,omitempty"`
}

// ItemOutput is one receipt line.
type ItemOutput struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}

// CodeResponse is the barcode payload of a receipt.
type CodeResponse struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
	Barcode    string `json:"barcode"`
}

// LastResponse lists the latest receipts of a point of sale, newest first.
type LastResponse struct {
	PointOfSale int               `json:"point_of_sale"`
	Type        int               `json:"type"`
	Receipts    []ReceiptResponse `json:"receipts"`
}

// SessionResponse reports the cached WSAA session.
type SessionResponse struct {
	Active     bool       `json:"active"`
	Expiration *time.Time `json:"expiration,omitempty"`
	ExpiresIn  string     `json:"expires_in,omitempty"`
}

// ValidationResponse is returned when a receipt document is rejected before
// reaching AFIP.
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewReceiptResponse renders r, with its barcode when given.
func NewReceiptResponse(r *model.Receipt, barcode *fiscalcode.BarcodePayload) ReceiptResponse {
	resp := ReceiptResponse{
		Identifier:    r.Identifier(),
		PointOfSale:   r.PointOfSale,
		Type:          r.Type,
		Letter:        r.TypeLetter(),
		Concept:       r.Concept,
		Number:        r.Number,
		Date:          r.Date.Format(dateLayout),
		CAE:           r.CAE,
		CAEExpiration: r.CAEExpiration.Format(dateLayout),
		Total:         r.Total().StringFixed(2),
		Items:         make([]ItemOutput, 0, len(r.Items)),
	}
	if r.Company != nil {
		resp.Issuer = IssuerOutput{Name: r.Company.Name, CUIT: r.Company.CUIT}
	}
	if r.Customer != nil {
		resp.Customer = CustomerOutput{
			IdentityDocument:     r.Customer.IdentityDocument,
			IdentityDocumentType: r.Customer.IdentityDocumentType(),
			Name:                 r.Customer.Name,
		}
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, ItemOutput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Total:    item.Total().StringFixed(2),
		})
	}
	if barcode != nil {
		resp.Code = barcode.Code
		resp.Barcode = barcode.DataURI
	}
	return resp
}
