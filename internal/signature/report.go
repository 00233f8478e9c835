package signature

import (
	"crypto/x509"
	"strings"
	"time"
)

// ExpiryWarningWindow is how close to NotAfter a certificate triggers a warning.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// ChainVerifier checks a certificate against trusted roots.
type ChainVerifier interface {
	VerifyChain(cert *x509.Certificate, intermediates []*x509.Certificate) ([]*x509.Certificate, error)
	HasRoots() bool
}

// CertificateReport describes whether a key pair is usable for WSAA logins.
type CertificateReport struct {
	// Overall validity - true only if all checks pass
	Valid bool `json:"valid"`

	WithinValidity bool     `json:"within_validity"`
	ChainChecked   bool     `json:"chain_checked"`
	ChainValid     bool     `json:"chain_valid"`
	Subject        *Subject `json:"subject,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// Subject contains certificate subject information
type Subject struct {
	Name         string    `json:"name"`
	Organization string    `json:"organization,omitempty"`
	CUIT         string    `json:"cuit,omitempty"`
	SerialNumber string    `json:"serial_number"`
	Issuer       string    `json:"issuer"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidTo      time.Time `json:"valid_to"`
}

// NewCertificateReport creates a new empty report
func NewCertificateReport() *CertificateReport {
	return &CertificateReport{
		Warnings: make([]string, 0),
		Errors:   make([]string, 0),
	}
}

// Inspect checks the validity window and, when verifier has roots, the chain of trust.
func Inspect(pair *KeyPair, verifier ChainVerifier, now time.Time) *CertificateReport {
	r := NewCertificateReport()
	r.SetSubject(pair.Certificate)

	if err := pair.CheckValidity(now); err != nil {
		r.AddError(err.Error())
	} else {
		r.WithinValidity = true
		if pair.Certificate.NotAfter.Sub(now) < ExpiryWarningWindow {
			r.AddWarning("certificate expires on " + pair.Certificate.NotAfter.Format(time.DateOnly))
		}
	}

	if verifier != nil && verifier.HasRoots() {
		r.ChainChecked = true
		if _, err := verifier.VerifyChain(pair.Certificate, nil); err != nil {
			r.AddError(ErrChainInvalid(err).Error())
		} else {
			r.ChainValid = true
		}
	} else {
		r.AddWarning("no trusted roots configured, chain not verified")
	}

	if r.Subject.CUIT == "" {
		r.AddWarning("certificate subject carries no CUIT serial number")
	}

	r.ComputeValidity()
	return r
}

// AddWarning adds a warning message to the report
func (r *CertificateReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError adds an error message and sets Valid to false
func (r *CertificateReport) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// SetSubject populates Subject from an x509 certificate
func (r *CertificateReport) SetSubject(cert *x509.Certificate) {
	if cert == nil {
		return
	}

	s := &Subject{
		Name:         cert.Subject.CommonName,
		SerialNumber: cert.SerialNumber.String(),
		ValidFrom:    cert.NotBefore,
		ValidTo:      cert.NotAfter,
		CUIT:         strings.TrimSpace(strings.TrimPrefix(cert.Subject.SerialNumber, "CUIT")),
	}

	if len(cert.Subject.Organization) > 0 {
		s.Organization = cert.Subject.Organization[0]
	}

	if len(cert.Issuer.CommonName) > 0 {
		s.Issuer = cert.Issuer.CommonName
	} else if len(cert.Issuer.Organization) > 0 {
		s.Issuer = cert.Issuer.Organization[0]
	}

	r.Subject = s
}

// ComputeValidity sets the Valid field based on individual check results
func (r *CertificateReport) ComputeValidity() {
	r.Valid = r.WithinValidity &&
		(!r.ChainChecked || r.ChainValid) &&
		len(r.Errors) == 0
}
