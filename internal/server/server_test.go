package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/model"
	"github.com/rezonia/afip-invoicer/internal/server"
	"github.com/rezonia/afip-invoicer/internal/session"
)

var caeExpiration = time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)

type fakeInvoicer struct {
	commitErr error
	commits   []*model.Receipt

	receipts map[string]*model.Receipt
	fetchErr error

	last       []*model.Receipt
	lastErr    error
	lastPrefix string
	lastCount  int

	status session.Status
	creds  credentials.Credentials
}

func (f *fakeInvoicer) Commit(_ context.Context, r *model.Receipt) (*model.Receipt, error) {
	f.commits = append(f.commits, r)
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	r.ApplyAuthorization(7, "12345678901234", caeExpiration)
	return r, nil
}

func (f *fakeInvoicer) Fetch(_ context.Context, identifier string) (*model.Receipt, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	r, ok := f.receipts[identifier]
	if !ok {
		return nil, model.NewMalformedIdentifierError(identifier, nil)
	}
	return r, nil
}

func (f *fakeInvoicer) FetchLast(_ context.Context, prefix string, count int) ([]*model.Receipt, error) {
	f.lastPrefix, f.lastCount = prefix, count
	return f.last, f.lastErr
}

func (f *fakeInvoicer) Credentials() credentials.Credentials {
	return f.creds.Clone()
}

func (f *fakeInvoicer) SessionStatus() session.Status {
	return f.status
}

type memoryStore struct {
	saved []credentials.Credentials
}

func (m *memoryStore) Load(context.Context) (credentials.Credentials, error) {
	return credentials.Credentials{}, nil
}

func (m *memoryStore) Save(_ context.Context, c credentials.Credentials) error {
	m.saved = append(m.saved, c)
	return nil
}

func fetchedReceipt(number int64) *model.Receipt {
	company := model.NewCompany("Acme SRL", "", "Calle 1", "20123456789", "", "", time.Time{})
	r := model.NewReceipt(company, &model.Customer{IdentityDocument: "30111222"}, 1,
		model.WithDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	_, _ = r.AddItem("Item", 1, decimal.RequireFromString("150.00"))
	r.ApplyAuthorization(number, "12345678901234", caeExpiration)
	return r
}

func newTestServer(inv *fakeInvoicer, cfg *server.Config, opts ...server.Option) http.Handler {
	if cfg == nil {
		cfg = &server.Config{Address: ":0", Debug: true}
	}
	return server.NewServer(cfg, inv, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body []byte, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const receiptDocument = `{
  "company": {"name": "Acme SRL", "address": "Calle 1", "cuit": "20123456789",
              "brute_income": "901", "iva": "Monotributo", "start_of_operations": "2020-01-01"},
  "customer": {"identity_document": "30111222", "name": "Juan Perez"},
  "point_of_sale": 1,
  "date": "2024-03-15",
  "items": [{"name": "Servicio", "amount": 2, "price": "50.25"}]
}`

func TestHealthEndpoint(t *testing.T) {
	w := do(t, newTestServer(&fakeInvoicer{}, nil), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestRequestID(t *testing.T) {
	h := newTestServer(&fakeInvoicer{}, nil)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, h, http.MethodGet, "/health", nil, "X-Request-ID", "abc")
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestCommitEndpoint(t *testing.T) {
	inv := &fakeInvoicer{creds: credentials.Credentials{credentials.TokenKey: "t", credentials.SignKey: "s"}}
	store := &memoryStore{}
	h := newTestServer(inv, nil, server.WithCredentialStore(store))

	w := do(t, h, http.MethodPost, "/api/v1/receipts", []byte(receiptDocument))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp server.ReceiptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1:11:7", resp.Identifier)
	assert.Equal(t, "C", resp.Letter)
	assert.Equal(t, "100.50", resp.Total)
	assert.Equal(t, "2024-03-15", resp.Date)
	assert.Equal(t, "2024-03-25", resp.CAEExpiration)
	assert.Equal(t, "201234567890110000112345678901234202403158", resp.Code)
	assert.True(t, strings.HasPrefix(resp.Barcode, "data:image/svg+xml;base64,"))
	assert.Equal(t, model.DocumentTypeDNI, resp.Customer.IdentityDocumentType)

	require.Len(t, inv.commits, 1)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "t", store.saved[0].Token())
}

func TestCommitEndpoint_InvalidDocument(t *testing.T) {
	inv := &fakeInvoicer{}
	h := newTestServer(inv, nil)

	doc := strings.Replace(receiptDocument, `"name": "Juan Perez"`, `"name": ""`, 1)
	w := do(t, h, http.MethodPost, "/api/v1/receipts", []byte(doc))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp server.ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Errors, "missing customer name")
	assert.Empty(t, inv.commits)
}

func TestCommitEndpoint_BadJSON(t *testing.T) {
	w := do(t, newTestServer(&fakeInvoicer{}, nil), http.MethodPost, "/api/v1/receipts", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommitEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"authentication", model.NewAuthenticationError(afip.NewFaultError("ns1:cms.cert.expired", "expired")), http.StatusBadGateway},
		{"remote", model.NewRemoteServiceError(model.OpRequestCAE, afip.NewFaultError("10016", "rejected")), http.StatusBadGateway},
		{"validation", model.ErrEmptyInvoice, http.StatusUnprocessableEntity},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeInvoicer{commitErr: tt.err}, nil)
			w := do(t, h, http.MethodPost, "/api/v1/receipts", []byte(receiptDocument))
			assert.Equal(t, tt.status, w.Code)

			var resp server.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestFetchEndpoint(t *testing.T) {
	inv := &fakeInvoicer{receipts: map[string]*model.Receipt{"1:11:6": fetchedReceipt(6)}}
	h := newTestServer(inv, nil)

	w := do(t, h, http.MethodGet, "/api/v1/receipts/1:11:6", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp server.ReceiptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(6), resp.Number)
	assert.Equal(t, "150.00", resp.Total)
	assert.Equal(t, "2024-03-15", resp.Date)
	assert.Equal(t, "201234567890110000112345678901234202403158", resp.Code)
	assert.Empty(t, resp.Barcode)
}

func TestFetchEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"malformed", "/api/v1/receipts/1:11:abc", nil, http.StatusBadRequest},
		{"not found", "/api/v1/receipts/1:11:99",
			model.NewRemoteServiceError(model.OpGetInvoice, afip.NewFaultError("602", "No existen datos")), http.StatusNotFound},
		{"transport", "/api/v1/receipts/1:11:99",
			model.NewRemoteServiceError(model.OpGetInvoice, &afip.TransportError{StatusCode: 503}), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeInvoicer{fetchErr: tt.err}, nil)
			w := do(t, h, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCodeEndpoint(t *testing.T) {
	inv := &fakeInvoicer{receipts: map[string]*model.Receipt{"1:11:6": fetchedReceipt(6)}}
	w := do(t, newTestServer(inv, nil), http.MethodGet, "/api/v1/receipts/1:11:6/code", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.CodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1:11:6", resp.Identifier)
	assert.Equal(t, "201234567890110000112345678901234202403158", resp.Code)
	assert.True(t, strings.HasPrefix(resp.Barcode, "data:image/svg+xml;base64,"))
}

func TestFetchLastEndpoint(t *testing.T) {
	inv := &fakeInvoicer{last: []*model.Receipt{fetchedReceipt(6), fetchedReceipt(5)}}
	w := do(t, newTestServer(inv, nil), http.MethodGet, "/api/v1/points-of-sale/1/types/11/last?count=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "1:11", inv.lastPrefix)
	assert.Equal(t, 2, inv.lastCount)

	var resp server.LastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.PointOfSale)
	assert.Equal(t, 11, resp.Type)
	require.Len(t, resp.Receipts, 2)
	assert.Equal(t, int64(6), resp.Receipts[0].Number)
	assert.Equal(t, int64(5), resp.Receipts[1].Number)
}

func TestFetchLastEndpoint_DefaultCount(t *testing.T) {
	inv := &fakeInvoicer{last: []*model.Receipt{fetchedReceipt(6)}}
	w := do(t, newTestServer(inv, nil), http.MethodGet, "/api/v1/points-of-sale/1/types/11/last", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, inv.lastCount)
}

func TestFetchLastEndpoint_Errors(t *testing.T) {
	w := do(t, newTestServer(&fakeInvoicer{}, nil), http.MethodGet, "/api/v1/points-of-sale/1/types/11/last?count=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	inv := &fakeInvoicer{lastErr: model.NewValidationError("count", 0, model.RuleMinCount, "count must be at least 1")}
	w = do(t, newTestServer(inv, nil), http.MethodGet, "/api/v1/points-of-sale/1/types/11/last?count=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSessionEndpoint(t *testing.T) {
	exp := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	inv := &fakeInvoicer{
		status: session.Status{Active: true, Expiration: &exp, ExpiresIn: "2h0m0s"},
		creds:  credentials.Credentials{credentials.TokenKey: "secret-token", credentials.SignKey: "secret-sign"},
	}
	w := do(t, newTestServer(inv, nil), http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.NotContains(t, w.Body.String(), "secret-token")
	assert.NotContains(t, w.Body.String(), "secret-sign")

	var resp server.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Active)
	require.NotNil(t, resp.Expiration)
	assert.True(t, exp.Equal(*resp.Expiration))
}

func TestBearerAuth(t *testing.T) {
	cfg := &server.Config{Debug: true, JWTSecret: "s3cret"}
	h := newTestServer(&fakeInvoicer{}, cfg)

	sign := func(secret string, exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "billing",
			ExpiresAt: jwt.NewNumericDate(exp),
		})
		s, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	w := do(t, h, http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/session", nil, "Authorization", "Bearer "+sign("other", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/session", nil, "Authorization", "Bearer "+sign("s3cret", time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")

	w = do(t, h, http.MethodGet, "/api/v1/session", nil, "Authorization", "Bearer "+sign("s3cret", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := &server.Config{Debug: true, RequestsPerMinute: 2}
	h := newTestServer(&fakeInvoicer{}, cfg)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestCORSPreflight(t *testing.T) {
	cfg := &server.Config{Debug: true, AllowedOrigins: []string{"*"}}
	h := newTestServer(&fakeInvoicer{}, cfg)

	w := do(t, h, http.MethodOptions, "/api/v1/receipts", nil,
		"Origin", "https://billing.example.com",
		"Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func BenchmarkHealth(b *testing.B) {
	h := server.NewServer(&server.Config{}, &fakeInvoicer{}).Handler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
	}
}
