// Package trust verifies that a WSAA certificate was issued by an AFIP CA.
package trust

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
)

// TrustStore holds the AFIP CA certificates a WSAA certificate must chain to.
// AFIP uses a different CA for homologation and production, so roots are
// supplied by the caller.
type TrustStore struct {
	pool     *x509.CertPool
	subjects []string
	clock    clockwork.Clock
}

// TrustStoreOption configures a TrustStore
type TrustStoreOption func(*TrustStore)

// WithClock sets the clock used as verification time
func WithClock(clock clockwork.Clock) TrustStoreOption {
	return func(s *TrustStore) {
		s.clock = clock
	}
}

// NewTrustStore creates a store with no roots.
func NewTrustStore(opts ...TrustStoreOption) *TrustStore {
	s := &TrustStore{
		pool:  x509.NewCertPool(),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCertificate trusts cert as a root.
func (s *TrustStore) AddCertificate(cert *x509.Certificate) {
	if cert == nil {
		return
	}
	s.pool.AddCert(cert)
	s.subjects = append(s.subjects, cert.Subject.CommonName)
}

// AddPEM trusts every CERTIFICATE block in data and returns how many were added.
func (s *TrustStore) AddPEM(data []byte) (int, error) {
	added := 0
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return added, fmt.Errorf("parse CA certificate %d: %w", added+1, err)
		}
		s.AddCertificate(cert)
		added++
	}
	if added == 0 {
		return 0, errors.New("no CA certificates found")
	}
	return added, nil
}

// LoadFile trusts the CA certificates of a PEM file.
func (s *TrustStore) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CA file: %w", err)
	}
	if _, err := s.AddPEM(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (s *TrustStore) HasRoots() bool {
	return len(s.subjects) > 0
}

// Subjects lists the common names of the trusted roots in insertion order.
func (s *TrustStore) Subjects() []string {
	return append([]string(nil), s.subjects...)
}

// VerifyChain returns the first chain from cert to a trusted root, evaluated
// at the store's clock.
func (s *TrustStore) VerifyChain(cert *x509.Certificate, intermediates []*x509.Certificate) ([]*x509.Certificate, error) {
	if cert == nil {
		return nil, errors.New("certificate is nil")
	}

	opts := x509.VerifyOptions{
		Roots:         s.pool,
		Intermediates: x509.NewCertPool(),
		CurrentTime:   s.clock.Now(),
		// WSAA certificates carry no extended key usage
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	for _, inter := range intermediates {
		opts.Intermediates.AddCert(inter)
	}

	chains, err := cert.Verify(opts)
	if err != nil {
		return nil, err
	}
	return chains[0], nil
}
