package receiptfile

import (
	"fmt"
	"strings"
	"time"

	money "github.com/rezonia/afip-invoicer/internal/decimal"
	"github.com/rezonia/afip-invoicer/internal/model"
)

// Report is the outcome of checking a File before it is sent to AFIP.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *Report) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the document. With strict set, descriptive company fields
// become required.
func (f *File) Validate(strict bool) *Report {
	report := &Report{Valid: true, Errors: []string{}, Warnings: []string{}}

	// Company
	switch {
	case f.Company.CUIT == "":
		report.fail("missing company cuit")
	case !isDigits(f.Company.CUIT) || len(f.Company.CUIT) != 11:
		report.fail("company cuit must be 11 digits: %s", f.Company.CUIT)
	}
	if f.Company.Name == "" {
		if strict {
			report.fail("missing company name")
		} else {
			report.warn("missing company name")
		}
	}
	if strict && f.Company.Address == "" {
		report.fail("missing company address")
	}
	if f.Company.StartOfOperations != "" {
		if _, err := time.Parse(DateLayout, f.Company.StartOfOperations); err != nil {
			report.fail("start_of_operations must be YYYY-MM-DD: %s", f.Company.StartOfOperations)
		}
	}

	// Customer
	if f.Customer.Name == "" {
		report.fail("missing customer name")
	}
	if f.Customer.IdentityDocument == "" {
		report.fail("missing customer identity_document")
	} else if !isDigits(f.Customer.IdentityDocument) {
		report.warn("customer identity_document is not numeric: %s", f.Customer.IdentityDocument)
	}

	// Header
	if f.PointOfSale < 1 {
		report.fail("point_of_sale must be positive")
	}
	switch f.Type {
	case 0, model.InvoiceTypeA, model.InvoiceTypeB, model.InvoiceTypeC:
	default:
		report.fail("unsupported invoice type %d", f.Type)
	}
	switch f.Concept {
	case 0, model.ConceptProducts, model.ConceptServices, model.ConceptProductsAndServices:
	default:
		report.fail("unsupported concept %d", f.Concept)
	}
	if f.Date != "" {
		if _, err := time.Parse(DateLayout, f.Date); err != nil {
			report.fail("date must be YYYY-MM-DD: %s", f.Date)
		}
	}

	// Items
	if len(f.Items) == 0 {
		report.fail("no items")
	}
	total := money.Zero
	for i, item := range f.Items {
		if strings.TrimSpace(item.Name) == "" {
			report.warn("items[%d]: missing name", i)
		}
		if item.Amount < 1 {
			report.fail("items[%d]: amount must be at least 1", i)
			continue
		}
		if item.Price.IsNegative() {
			report.fail("items[%d]: negative price %s", i, item.Price)
		}
		total = total.Add(money.LineTotal(item.Price, item.Amount))
	}
	if len(f.Items) > 0 && !money.IsPositive(money.Quantize(total)) {
		report.fail("total must be positive, got %s", total.StringFixed(2))
	}

	return report
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
