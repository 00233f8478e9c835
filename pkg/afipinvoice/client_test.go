package afipinvoice_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/afip-invoicer/pkg/afipinvoice"
)

const fev1 = "http://ar.gov.afip.dif.FEV1/"

// fakeAFIP serves WSAA and WSFEv1 from one server, keyed by SOAPAction.
type fakeAFIP struct {
	server *httptest.Server
	mu     sync.Mutex
	calls  map[string]int
}

func newFakeAFIP(t *testing.T) *fakeAFIP {
	f := &fakeAFIP{calls: make(map[string]int)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAFIP) environment() afipinvoice.Environment {
	return afipinvoice.Environment{
		Name:    "fake",
		WSAAURL: f.server.URL + "/wsaa",
		WSFEURL: f.server.URL + "/wsfe",
	}
}

func (f *fakeAFIP) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[action]
}

func (f *fakeAFIP) handle(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	action := strings.Trim(r.Header.Get("SOAPAction"), `"`)

	f.mu.Lock()
	f.calls[action]++
	f.mu.Unlock()

	var body string
	switch action {
	case "":
		body = loginResponse(time.Now().Add(12 * time.Hour))
	case fev1 + "FECompUltimoAutorizado":
		body = wsfeResult("FECompUltimoAutorizado", `<PtoVta>1</PtoVta><CbteTipo>11</CbteTipo><CbteNro>5</CbteNro>`)
	case fev1 + "FECAESolicitar":
		body = wsfeResult("FECAESolicitar", `
			<FeCabResp><Cuit>20123456789</Cuit><PtoVta>1</PtoVta><CbteTipo>11</CbteTipo><Resultado>A</Resultado></FeCabResp>
			<FeDetResp><FECAEDetResponse>
				<CbteDesde>6</CbteDesde><CbteHasta>6</CbteHasta>
				<Resultado>A</Resultado><CAE>74112345678901</CAE><CAEFchVto>20240325</CAEFchVto>
			</FECAEDetResponse></FeDetResp>`)
	case fev1 + "FECompConsultar":
		body = wsfeResult("FECompConsultar", `
			<ResultGet>
				<Concepto>3</Concepto><DocTipo>96</DocTipo><DocNro>30111222</DocNro>
				<CbteDesde>6</CbteDesde><CbteHasta>6</CbteHasta><CbteFch>20240315</CbteFch>
				<ImpTotal>120.5</ImpTotal><Resultado>A</Resultado>
				<CodAutorizacion>74112345678901</CodAutorizacion><FchVto>20240325</FchVto>
				<PtoVta>1</PtoVta><CbteTipo>11</CbteTipo>
			</ResultGet>`)
	default:
		http.Error(w, "unexpected action "+action, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func envelope(inner string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>%s</soap:Body></soap:Envelope>`, inner)
}

func wsfeResult(operation, inner string) string {
	return envelope(fmt.Sprintf(`<%[1]sResponse xmlns="http://ar.gov.afip.dif.FEV1/"><%[1]sResult>%[2]s</%[1]sResult></%[1]sResponse>`, operation, inner))
}

func loginResponse(expiration time.Time) string {
	ticket := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<loginTicketResponse version="1.0">
  <header>
    <generationTime>%s</generationTime>
    <expirationTime>%s</expirationTime>
  </header>
  <credentials>
    <token>PD94bWwgdG9rZW4=</token>
    <sign>c2lnbg==</sign>
  </credentials>
</loginTicketResponse>`,
		time.Now().Format("2006-01-02T15:04:05.000-07:00"),
		expiration.Format("2006-01-02T15:04:05.000-07:00"))

	escaped := strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(ticket)
	return envelope(fmt.Sprintf(
		`<ns1:loginCmsResponse xmlns:ns1="http://wsaa.view.sua.dvadac.desein.afip.gov"><ns1:loginCmsReturn>%s</ns1:loginCmsReturn></ns1:loginCmsResponse>`,
		escaped))
}

func selfSigned(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   "facturacion",
			SerialNumber: "CUIT 20123456789",
		},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter:  time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM
}

func newClient(t *testing.T, fake *fakeAFIP, store afipinvoice.CredentialStore) *afipinvoice.Client {
	t.Helper()

	certPEM, keyPEM := selfSigned(t)
	env := fake.environment()

	opts := afipinvoice.DefaultOptions()
	opts.CUIT = "20123456789"
	opts.CertificatePEM = certPEM
	opts.PrivateKeyPEM = keyPEM
	opts.Environment = &env
	opts.RateLimit = 0
	opts.Store = store

	client, err := afipinvoice.New(context.Background(), opts)
	require.NoError(t, err)
	return client
}

func testReceipt(t *testing.T) *afipinvoice.Receipt {
	t.Helper()

	company := afipinvoice.NewCompany("ACME S.A.", "ACME", "Av. Siempre Viva 742", "20123456789", "", "", time.Time{})
	customer := &afipinvoice.Customer{IdentityDocument: "30111222", Name: "Juan Perez"}
	r := afipinvoice.NewReceipt(company, customer, 1,
		afipinvoice.WithDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	_, err := r.AddItem("Consultoria", 1, decimal.RequireFromString("120.50"))
	require.NoError(t, err)
	return r
}

func TestClient_IssueAndFetch(t *testing.T) {
	fake := newFakeAFIP(t)
	path := filepath.Join(t.TempDir(), "credentials.json")
	client := newClient(t, fake, afipinvoice.NewFileStore(path))
	ctx := context.Background()

	receipt, err := client.Issue(ctx, testReceipt(t))
	require.NoError(t, err)
	assert.Equal(t, int64(6), receipt.Number)
	assert.Equal(t, "74112345678901", receipt.CAE)
	assert.Equal(t, "1:11:6", receipt.Identifier())

	code, err := afipinvoice.Code(receipt)
	require.NoError(t, err)
	assert.Len(t, code, 42)
	assert.True(t, strings.HasPrefix(code, "20123456789011000017411234567890120240315"), code)

	barcode, err := afipinvoice.Barcode(receipt)
	require.NoError(t, err)
	assert.Equal(t, code, barcode.Code)

	require.NoError(t, client.Save(ctx))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TOKEN")

	fetched, err := client.Fetch(ctx, "1:11:6")
	require.NoError(t, err)
	assert.Equal(t, "74112345678901", fetched.CAE)
	assert.Equal(t, "30111222", fetched.Customer.IdentityDocument)
	assert.Equal(t, "20123456789", fetched.Company.CUIT)

	assert.True(t, client.SessionStatus().Active)
	assert.Equal(t, 1, fake.count(""))
}

func TestClient_ReusesPersistedSession(t *testing.T) {
	fake := newFakeAFIP(t)
	store := afipinvoice.NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	ctx := context.Background()

	first := newClient(t, fake, store)
	_, err := first.RefreshSession(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx))

	second := newClient(t, fake, store)
	assert.True(t, second.SessionStatus().Active)

	_, err = second.Issue(ctx, testReceipt(t))
	require.NoError(t, err)
	assert.Equal(t, 1, fake.count(""), "second client must not log in again")
}

func TestClient_FetchMalformedIdentifier(t *testing.T) {
	client := newClient(t, newFakeAFIP(t), nil)

	_, err := client.Fetch(context.Background(), "1:11")
	var malformed *afipinvoice.MalformedIdentifierError
	assert.ErrorAs(t, err, &malformed)
}

func TestNew_Errors(t *testing.T) {
	_, err := afipinvoice.New(context.Background(), afipinvoice.Options{})
	assert.Error(t, err)

	_, err = afipinvoice.New(context.Background(), afipinvoice.Options{
		CUIT:           "20123456789",
		CertificatePEM: []byte("not a certificate"),
		PrivateKeyPEM:  []byte("not a key"),
	})
	assert.Error(t, err)
}
