package afip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	maxResponseSize = 4 << 20
)

// Transport posts SOAP 1.1 envelopes and unwraps their bodies.
type Transport struct {
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// TransportOption configures a Transport
type TransportOption func(*Transport)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = c
	}
}

// WithRateLimit throttles outgoing calls to r per second with the given burst
func WithRateLimit(r float64, burst int) TransportOption {
	return func(t *Transport) {
		if r > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(r), burst)
		}
	}
}

// WithLogger sets the transport logger
func WithLogger(l zerolog.Logger) TransportOption {
	return func(t *Transport) {
		t.log = l
	}
}

// NewTransport creates a transport with a 30s HTTP timeout and no throttling.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Inf, 0),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// newEnvelope returns an empty envelope declaring the service namespace under prefix.
func newEnvelope(prefix, namespace string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns:soap", soapEnvelopeNS)
	env.CreateAttr("xmlns:"+prefix, namespace)

	return doc, env.CreateElement("soap:Body")
}

// Call posts the envelope and returns the response Body element. SOAP faults
// come back as *FaultError, everything else that prevents reading a body as
// *TransportError.
func (t *Transport) Call(ctx context.Context, url, action string, doc *etree.Document) (*etree.Element, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+action+`"`)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Cause: err}
	}

	t.log.Debug().
		Str("action", action).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("soap call")

	body, err := parseBody(data)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Cause: err}
	}

	if fault := body.FindElement("Fault"); fault != nil {
		return nil, NewFaultError(childText(fault, "faultcode"), childText(fault, "faultstring"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return body, nil
}

func parseBody(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	body := doc.FindElement("//Body")
	if body == nil {
		return nil, fmt.Errorf("response has no SOAP body")
	}
	return body, nil
}

// childText returns the trimmed text of the element at path, or "".
func childText(e *etree.Element, path string) string {
	child := e.FindElement(path)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
