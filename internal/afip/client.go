// Package afip talks to the AFIP web services: WSAA for authentication and
// WSFEv1 for electronic invoices.
package afip

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Authenticator exchanges a signed login ticket request for a session.
type Authenticator interface {
	Authenticate(ctx context.Context, req LoginRequest) (LoginResult, error)
}

// LoginRequest carries the DER encoded CMS SignedData wrapping a login ticket request.
type LoginRequest struct {
	CMS []byte
}

// LoginResult is the session granted by WSAA.
type LoginResult struct {
	Token      string
	Sign       string
	Expiration time.Time
}

// InvoicingClient is an authenticated WSFEv1 handle.
//
// CreateInvoice only stages the request locally; RequestCAE submits it.
type InvoicingClient interface {
	LastAuthorized(ctx context.Context, invoiceType, pointOfSale int) (int64, error)
	CreateInvoice(req InvoiceRequest) error
	RequestCAE(ctx context.Context) (CAEResult, error)
	GetInvoice(ctx context.Context, invoiceType, pointOfSale int, number int64) (InvoiceRecord, error)
}

// Auth identifies the caller on every WSFEv1 request.
type Auth struct {
	Token string
	Sign  string
	CUIT  string
}

// ClientFactory binds an invoicing client to a session.
type ClientFactory func(auth Auth) InvoicingClient

// InvoiceRequest is a single invoice (FECAEDetRequest) to be authorized.
type InvoiceRequest struct {
	Concept     int
	DocType     int
	DocNumber   string
	Type        int
	PointOfSale int
	NumberFrom  int64
	NumberTo    int64
	NetAmount   decimal.Decimal
	TotalAmount decimal.Decimal
	// Date is formatted YYYYMMDD
	Date string
}

// CAEResult is the authorization returned for a submitted invoice.
type CAEResult struct {
	CAE string
	// Expiration is formatted YYYYMMDD
	Expiration   string
	Observations []Observation
}

// Observation is a non-fatal remark attached to an authorization.
type Observation struct {
	Code    string
	Message string
}

// InvoiceRecord is an authorized invoice as returned by FECompConsultar.
type InvoiceRecord struct {
	DocNumber     string
	DocType       int
	Type          int
	Concept       int
	PointOfSale   int
	Number        int64
	Date          string
	Total         decimal.Decimal
	CAE           string
	CAEExpiration string
}
