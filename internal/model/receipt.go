package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/afip-invoicer/internal/decimal"
)

// Invoice types (CbteTipo) as defined by AFIP.
const (
	InvoiceTypeA = 1
	InvoiceTypeB = 6
	InvoiceTypeC = 11
)

// Concepts (Concepto) for a receipt.
const (
	ConceptProducts            = 1
	ConceptServices            = 2
	ConceptProductsAndServices = 3
)

// Item is a single receipt line.
type Item struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Total returns price * quantity.
func (i Item) Total() decimal.Decimal {
	return money.LineTotal(i.Price, i.Quantity)
}

// Receipt is an invoice to be authorized, or one that AFIP already authorized.
//
// Number, CAE and CAEExpiration are either all zero or all set; only
// ApplyAuthorization writes them.
type Receipt struct {
	Company     *Company
	Customer    *Customer
	PointOfSale int
	Type        int
	Concept     int
	Date        time.Time
	Items       []Item

	Number        int64
	CAE           string
	CAEExpiration time.Time
}

// ReceiptOption configures a Receipt
type ReceiptOption func(*Receipt)

// WithType sets the invoice type.
func WithType(t int) ReceiptOption {
	return func(r *Receipt) {
		r.Type = t
	}
}

// WithConcept sets the concept.
func WithConcept(c int) ReceiptOption {
	return func(r *Receipt) {
		r.Concept = c
	}
}

// WithDate sets the issue date.
func WithDate(d time.Time) ReceiptOption {
	return func(r *Receipt) {
		r.Date = d
	}
}

// NewReceipt creates an uncommitted Factura C dated now.
func NewReceipt(company *Company, customer *Customer, pointOfSale int, opts ...ReceiptOption) *Receipt {
	r := &Receipt{
		Company:     company,
		Customer:    customer,
		PointOfSale: pointOfSale,
		Type:        InvoiceTypeC,
		Concept:     ConceptProductsAndServices,
		Date:        time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddItem appends a line and returns the receipt for chaining.
func (r *Receipt) AddItem(name string, quantity int, price decimal.Decimal) (*Receipt, error) {
	if quantity < 1 {
		return r, NewValidationError("item.quantity", quantity, RuleMinQuantity, "quantity must be at least 1")
	}
	r.Items = append(r.Items, Item{Name: name, Quantity: quantity, Price: price})
	return r, nil
}

// Total sums all line totals.
func (r *Receipt) Total() decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(r.Items))
	for _, item := range r.Items {
		totals = append(totals, item.Total())
	}
	return money.Sum(totals)
}

// IsCommitted reports whether AFIP has authorized the receipt.
func (r *Receipt) IsCommitted() bool {
	return r.CAE != ""
}

// ApplyAuthorization records the number and CAE assigned by AFIP.
func (r *Receipt) ApplyAuthorization(number int64, cae string, expiration time.Time) {
	r.Number = number
	r.CAE = cae
	r.CAEExpiration = expiration
}

// Identifier renders pos:type:number. Empty for uncommitted receipts.
func (r *Receipt) Identifier() string {
	if !r.IsCommitted() {
		return ""
	}
	return fmt.Sprintf("%d:%d:%d", r.PointOfSale, r.Type, r.Number)
}

// TypeLetter returns the printed letter of the invoice type.
func (r *Receipt) TypeLetter() string {
	switch r.Type {
	case InvoiceTypeA:
		return "A"
	case InvoiceTypeB:
		return "B"
	case InvoiceTypeC:
		return "C"
	default:
		return ""
	}
}
