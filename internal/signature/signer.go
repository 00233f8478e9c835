package signature

import (
	"crypto/x509"
	"encoding/asn1"

	"github.com/hhrutter/pkcs7"
)

// Signer produces the CMS SignedData that wraps a WSAA login ticket request.
type Signer struct {
	pair   *KeyPair
	digest asn1.ObjectIdentifier
}

// SignerOption configures a Signer
type SignerOption func(*Signer)

// WithSHA1 switches the digest to SHA-1, which some legacy WSAA deployments expect.
func WithSHA1() SignerOption {
	return func(s *Signer) {
		s.digest = pkcs7.OIDDigestAlgorithmSHA1
	}
}

// NewSigner parses the PEM blobs and returns a signer using SHA-256.
func NewSigner(certPEM, keyPEM []byte, opts ...SignerOption) (*Signer, error) {
	pair, err := ParseKeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return NewSignerFromKeyPair(pair, opts...), nil
}

// NewSignerFromKeyPair returns a signer for an already parsed key pair.
func NewSignerFromKeyPair(pair *KeyPair, opts ...SignerOption) *Signer {
	s := &Signer{
		pair:   pair,
		digest: pkcs7.OIDDigestAlgorithmSHA256,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign returns DER encoded SignedData with content attached and the signer
// certificate embedded.
func (s *Signer) Sign(content []byte) ([]byte, error) {
	sd, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, ErrSigningFailed(err)
	}
	sd.SetDigestAlgorithm(s.digest)

	if err := sd.AddSigner(s.pair.Certificate, s.pair.PrivateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, ErrSigningFailed(err)
	}

	der, err := sd.Finish()
	if err != nil {
		return nil, ErrSigningFailed(err)
	}
	return der, nil
}

// Certificate returns the signing certificate.
func (s *Signer) Certificate() *x509.Certificate {
	return s.pair.Certificate
}
