package signature_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMaterial struct {
	cert    *x509.Certificate
	certPEM []byte
	keyPEM  []byte
}

func newRSAMaterial(t *testing.T, notBefore, notAfter time.Time) testMaterial {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cert := selfSign(t, &key.PublicKey, key, notBefore, notAfter)
	return testMaterial{
		cert:    cert,
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}),
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	}
}

func newECMaterial(t *testing.T) testMaterial {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	cert := selfSign(t, &key.PublicKey, key, time.Now().Add(-time.Hour), time.Now().Add(365*24*time.Hour))
	return testMaterial{
		cert:    cert,
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}),
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
	}
}

func selfSign(t *testing.T, pub, priv any, notBefore, notAfter time.Time) *x509.Certificate {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   "facturacion",
			Organization: []string{"ACME S.A."},
			SerialNumber: "CUIT 20123456789",
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func validWindow() (time.Time, time.Time) {
	return time.Now().Add(-time.Hour), time.Now().Add(365 * 24 * time.Hour)
}

func newValidRSAMaterial(t *testing.T) testMaterial {
	t.Helper()
	notBefore, notAfter := validWindow()
	return newRSAMaterial(t, notBefore, notAfter)
}
