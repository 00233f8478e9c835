package afip_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

type fakeResponse struct {
	status int
	body   string
}

type recordedRequest struct {
	action string
	doc    *etree.Document
}

// fakeAFIP answers SOAP calls by SOAPAction, replaying queued responses in
// order and repeating the last one.
type fakeAFIP struct {
	t         *testing.T
	server    *httptest.Server
	mu        sync.Mutex
	responses map[string][]fakeResponse
	requests  []recordedRequest
}

func newFakeAFIP(t *testing.T) *fakeAFIP {
	f := &fakeAFIP{t: t, responses: make(map[string][]fakeResponse)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAFIP) URL() string {
	return f.server.URL
}

func (f *fakeAFIP) on(action string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[action] = append(f.responses[action], fakeResponse{status: status, body: body})
}

func (f *fakeAFIP) calls(action string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.action == action {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeAFIP) handle(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	doc := etree.NewDocument()
	require.NoError(f.t, doc.ReadFromBytes(data))

	action := strings.Trim(r.Header.Get("SOAPAction"), `"`)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{action: action, doc: doc})
	queue := f.responses[action]
	var resp fakeResponse
	switch len(queue) {
	case 0:
		resp = fakeResponse{status: http.StatusInternalServerError, body: "no response configured"}
	case 1:
		resp = queue[0]
	default:
		resp = queue[0]
		f.responses[action] = queue[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func envelope(inner string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<soap:Body>%s</soap:Body>
</soap:Envelope>`, inner)
}

func soapFault(code, message string) string {
	return envelope(fmt.Sprintf(`<soap:Fault><faultcode>%s</faultcode><faultstring>%s</faultstring></soap:Fault>`, code, message))
}

func wsfeResult(operation, inner string) string {
	return envelope(fmt.Sprintf(`<%[1]sResponse xmlns="http://ar.gov.afip.dif.FEV1/"><%[1]sResult>%[2]s</%[1]sResult></%[1]sResponse>`, operation, inner))
}

func text(doc *etree.Document, path string) string {
	e := doc.FindElement(path)
	if e == nil {
		return ""
	}
	return e.Text()
}

func newRawServer(t *testing.T, h http.HandlerFunc) string {
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return server.URL
}
