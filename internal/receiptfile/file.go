// Package receiptfile reads receipt input documents (JSON or YAML) and turns
// them into uncommitted receipts.
package receiptfile

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/afip-invoicer/internal/model"
)

// DateLayout is used for start_of_operations and date.
const DateLayout = "2006-01-02"

// File is the input document for one receipt.
type File struct {
	Company     Company  `json:"company" yaml:"company"`
	Customer    Customer `json:"customer" yaml:"customer"`
	PointOfSale int      `json:"point_of_sale" yaml:"point_of_sale"`
	Type        int      `json:"type,omitempty" yaml:"type,omitempty"`
	Concept     int      `json:"concept,omitempty" yaml:"concept,omitempty"`
	Date        string   `json:"date,omitempty" yaml:"date,omitempty"`
	Items       []Item   `json:"items" yaml:"items"`
}

// Company is the issuer block.
type Company struct {
	Name              string `json:"name" yaml:"name"`
	ShortName         string `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	Address           string `json:"address" yaml:"address"`
	CUIT              string `json:"cuit" yaml:"cuit"`
	BruteIncome       string `json:"brute_income" yaml:"brute_income"`
	IVA               string `json:"iva" yaml:"iva"`
	StartOfOperations string `json:"start_of_operations" yaml:"start_of_operations"`
}

// Customer is the buyer block.
type Customer struct {
	IdentityDocument string `json:"identity_document" yaml:"identity_document"`
	Name             string `json:"name" yaml:"name"`
}

// Item is one line; price accepts numbers or quoted strings.
type Item struct {
	Name   string          `json:"name" yaml:"name"`
	Amount int             `json:"amount" yaml:"amount"`
	Price  decimal.Decimal `json:"price" yaml:"price"`
}

// ToReceipt builds an uncommitted receipt from the document.
func (f *File) ToReceipt() (*model.Receipt, error) {
	var start time.Time
	if f.Company.StartOfOperations != "" {
		t, err := time.Parse(DateLayout, f.Company.StartOfOperations)
		if err != nil {
			return nil, model.NewValidationError("company.start_of_operations", f.Company.StartOfOperations,
				model.RuleInvalidFormat, "expected YYYY-MM-DD")
		}
		start = t
	}

	company := model.NewCompany(
		f.Company.Name,
		f.Company.ShortName,
		f.Company.Address,
		f.Company.CUIT,
		f.Company.BruteIncome,
		f.Company.IVA,
		start,
	)
	customer := &model.Customer{
		IdentityDocument: f.Customer.IdentityDocument,
		Name:             f.Customer.Name,
	}

	var opts []model.ReceiptOption
	if f.Type != 0 {
		opts = append(opts, model.WithType(f.Type))
	}
	if f.Concept != 0 {
		opts = append(opts, model.WithConcept(f.Concept))
	}
	if f.Date != "" {
		d, err := time.Parse(DateLayout, f.Date)
		if err != nil {
			return nil, model.NewValidationError("date", f.Date, model.RuleInvalidFormat, "expected YYYY-MM-DD")
		}
		opts = append(opts, model.WithDate(d))
	}

	r := model.NewReceipt(company, customer, f.PointOfSale, opts...)
	for i, item := range f.Items {
		if _, err := r.AddItem(item.Name, item.Amount, item.Price); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return r, nil
}
