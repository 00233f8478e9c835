// Package afipinvoice provides a public API for issuing AFIP electronic
// invoices (WSFEv1) with cached WSAA sessions.
//
// Example usage:
//
//	client, err := afipinvoice.New(ctx, afipinvoice.Options{
//	    CUIT:           "20123456789",
//	    CertificatePEM: cert,
//	    PrivateKeyPEM:  key,
//	    Store:          afipinvoice.NewFileStore("credentials.json"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	receipt := afipinvoice.NewReceipt(company, customer, 1)
//	receipt.AddItem("Consultoria", 1, decimal.RequireFromString("1500"))
//	if _, err := client.Issue(ctx, receipt); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(receipt.Identifier(), receipt.CAE)
package afipinvoice

import (
	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/fiscalcode"
	"github.com/rezonia/afip-invoicer/internal/invoicing"
	"github.com/rezonia/afip-invoicer/internal/model"
	"github.com/rezonia/afip-invoicer/internal/session"
)

// Re-export core types for public API
type (
	Receipt         = model.Receipt
	Item            = model.Item
	Company         = model.Company
	Customer        = model.Customer
	ReceiptOption   = model.ReceiptOption
	Credentials     = credentials.Credentials
	CredentialStore = credentials.Store
	Journal         = invoicing.Journal
	Environment     = afip.Environment
	SessionStatus   = session.Status
	BarcodePayload  = fiscalcode.BarcodePayload
)

// Re-export invoice types and concepts
const (
	InvoiceTypeA = model.InvoiceTypeA
	InvoiceTypeB = model.InvoiceTypeB
	InvoiceTypeC = model.InvoiceTypeC

	ConceptProducts            = model.ConceptProducts
	ConceptServices            = model.ConceptServices
	ConceptProductsAndServices = model.ConceptProductsAndServices
)

// Re-export error types
type (
	ValidationError          = model.ValidationError
	AuthenticationError      = model.AuthenticationError
	MalformedIdentifierError = model.MalformedIdentifierError
	RemoteServiceError       = model.RemoteServiceError
	FaultError               = afip.FaultError
)

// Re-export sentinel errors
var (
	ErrMissingCustomerData = model.ErrMissingCustomerData
	ErrEmptyInvoice        = model.ErrEmptyInvoice
	ErrAlreadyCommitted    = model.ErrAlreadyCommitted
	ErrNotCommitted        = fiscalcode.ErrNotCommitted
)

// Re-export environments
var (
	Homologation = afip.Homologation
	Production   = afip.Production
)

// Re-export constructors
var (
	NewReceipt  = model.NewReceipt
	NewCompany  = model.NewCompany
	WithType    = model.WithType
	WithConcept = model.WithConcept
	WithDate    = model.WithDate
)

// NewFileStore keeps credentials in a JSON file at path.
func NewFileStore(path string) CredentialStore {
	return credentials.NewFileStore(path)
}

// Code returns the numeric code printed under the barcode of a committed receipt.
func Code(r *Receipt) (string, error) {
	return fiscalcode.Code(r)
}

// Barcode renders the Interleaved 2 of 5 barcode of a committed receipt.
func Barcode(r *Receipt) (BarcodePayload, error) {
	return fiscalcode.Barcode(r)
}
