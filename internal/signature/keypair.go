package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

// KeyPair is the certificate AFIP issued for a CUIT plus its private key.
type KeyPair struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.Signer
}

// ParseKeyPair decodes PEM encoded certificate and private key blobs and checks
// that they belong together.
func ParseKeyPair(certPEM, keyPEM []byte) (*KeyPair, error) {
	cert, err := ParseCertificate(certPEM)
	if err != nil {
		return nil, err
	}

	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}

	if !publicKeysEqual(cert.PublicKey, key.Public()) {
		return nil, ErrKeyMismatch()
	}

	return &KeyPair{Certificate: cert, PrivateKey: key}, nil
}

// ParseCertificate decodes the first CERTIFICATE block of a PEM blob.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	for {
		block, rest := pem.Decode(data)
		if block == nil {
			return nil, ErrInvalidCertificate(errors.New("no CERTIFICATE block found"))
		}
		if block.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, ErrInvalidCertificate(err)
			}
			return cert, nil
		}
		data = rest
	}
}

// ParsePrivateKey decodes PKCS#1, PKCS#8 and SEC 1 private keys.
func ParsePrivateKey(data []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidKey(errors.New("no PEM block found"))
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, ErrInvalidKey(err)
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, ErrInvalidKey(err)
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, ErrInvalidKey(err)
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrUnsupportedKey(fmt.Sprintf("%T", key))
		}
		return signer, nil
	default:
		return nil, ErrInvalidKey(fmt.Errorf("unexpected PEM block %q", block.Type))
	}
}

// CheckValidity returns an error unless now falls within the certificate validity window.
func (k *KeyPair) CheckValidity(now time.Time) error {
	subject := k.Certificate.Subject.String()
	if now.Before(k.Certificate.NotBefore) {
		return ErrCertNotYetValid(subject)
	}
	if now.After(k.Certificate.NotAfter) {
		return ErrCertExpired(subject)
	}
	return nil
}

func publicKeysEqual(a, b crypto.PublicKey) bool {
	switch pub := a.(type) {
	case *rsa.PublicKey:
		return pub.Equal(b)
	case *ecdsa.PublicKey:
		return pub.Equal(b)
	default:
		return false
	}
}
