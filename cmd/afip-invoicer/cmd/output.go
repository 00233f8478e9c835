package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rezonia/afip-invoicer/internal/fiscalcode"
	"github.com/rezonia/afip-invoicer/internal/server"
	"github.com/rezonia/afip-invoicer/internal/signature"
	"github.com/rezonia/afip-invoicer/pkg/afipinvoice"
)

var (
	accent  = lipgloss.Color("#2563EB")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Foreground(dim).Width(16)
	passStyle  = lipgloss.NewStyle().Foreground(success)
	failStyle  = lipgloss.NewStyle().Foreground(danger)
	warnStyle  = lipgloss.NewStyle().Foreground(warning)
	amountCol  = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
	nameCol    = lipgloss.NewStyle().Width(28)
)

// printReceipts writes receipts as JSON or as one box per receipt.
func printReceipts(w io.Writer, receipts []*afipinvoice.Receipt) error {
	if outputFormat == "json" {
		out := make([]server.ReceiptResponse, 0, len(receipts))
		for _, r := range receipts {
			resp := server.NewReceiptResponse(r, nil)
			if code, err := fiscalcode.Code(r); err == nil {
				resp.Code = code
			}
			out = append(out, resp)
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	for _, r := range receipts {
		fmt.Fprintln(w, renderReceipt(r))
	}
	return nil
}

func renderReceipt(r *afipinvoice.Receipt) string {
	var b strings.Builder

	title := fmt.Sprintf("Factura %s  %04d-%08d", r.TypeLetter(), r.PointOfSale, r.Number)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	if r.Company != nil {
		field("Issuer", fmt.Sprintf("%s (CUIT %s)", r.Company.Name, r.Company.CUIT))
	}
	if r.Customer != nil {
		customer := r.Customer.IdentityDocument
		if r.Customer.Name != "" {
			customer = fmt.Sprintf("%s (%s)", r.Customer.Name, r.Customer.IdentityDocument)
		}
		field("Customer", customer)
	}
	field("Date", r.Date.Format(time.DateOnly))
	field("CAE", r.CAE)
	field("CAE expiration", r.CAEExpiration.Format(time.DateOnly))
	if code, err := fiscalcode.Code(r); err == nil {
		field("Code", code)
	}
	b.WriteString("\n")

	for _, item := range r.Items {
		b.WriteString(nameCol.Render(fmt.Sprintf("%d x %s", item.Quantity, item.Name)))
		b.WriteString(amountCol.Render(item.Price.StringFixed(2)))
		b.WriteString(amountCol.Render(item.Total().StringFixed(2)))
		b.WriteString("\n")
	}
	b.WriteString(nameCol.Render(titleStyle.Render("Total")))
	b.WriteString(amountCol.Render(""))
	b.WriteString(amountCol.Render(titleStyle.Render(r.Total().StringFixed(2))))

	return boxStyle.Render(b.String())
}

func printValidation(w io.Writer, results []*ValidationResult) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "%s %s: VALID", passStyle.Render("✓"), r.File)
			if r.Total != "" {
				fmt.Fprintf(w, " (total %s)", r.Total)
			}
			fmt.Fprintln(w)
		} else {
			fmt.Fprintf(w, "%s %s: INVALID\n", failStyle.Render("✗"), r.File)
			for _, e := range r.Errors {
				fmt.Fprintf(w, "  - %s\n", e)
			}
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("⚠"), warn)
		}
	}
}

func printCertificateReport(w io.Writer, file string, report *signature.CertificateReport) {
	status := passStyle.Render("✓") + " " + file + ": VALID"
	if !report.Valid {
		status = failStyle.Render("✗") + " " + file + ": INVALID"
	}
	fmt.Fprintln(w, status)

	if s := report.Subject; s != nil {
		fmt.Fprintf(w, "  %s%s\n", labelStyle.Render("Subject:"), s.Name)
		if s.Organization != "" {
			fmt.Fprintf(w, "  %s%s\n", labelStyle.Render("Org:"), s.Organization)
		}
		if s.CUIT != "" {
			fmt.Fprintf(w, "  %s%s\n", labelStyle.Render("CUIT:"), s.CUIT)
		}
		fmt.Fprintf(w, "  %s%s\n", labelStyle.Render("Issuer:"), s.Issuer)
		fmt.Fprintf(w, "  %s%s to %s\n", labelStyle.Render("Valid:"),
			s.ValidFrom.Format(time.DateOnly), s.ValidTo.Format(time.DateOnly))
	}

	check := func(ok bool) string {
		if ok {
			return passStyle.Render("✓")
		}
		return failStyle.Render("✗")
	}
	fmt.Fprintf(w, "  %s%s\n", labelStyle.Render("Validity:"), check(report.WithinValidity))
	if report.ChainChecked {
		fmt.Fprintf(w, "  %s%s\n", labelStyle.Render("Cert Chain:"), check(report.ChainValid))
	}

	for _, e := range report.Errors {
		fmt.Fprintf(w, "  %s %s\n", failStyle.Render("✗"), e)
	}
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("⚠"), warn)
	}
}
