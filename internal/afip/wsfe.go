package afip

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	money "github.com/rezonia/afip-invoicer/internal/decimal"
)

const (
	wsfeNamespace = "http://ar.gov.afip.dif.FEV1/"

	currencyPesos   = "PES"
	resultOK        = "A"
	conceptProducts = 1
)

// WSFEClient is an InvoicingClient bound to one session. It holds the staged
// invoice between CreateInvoice and RequestCAE and is not safe for concurrent use.
type WSFEClient struct {
	transport *Transport
	url       string
	auth      Auth
	retry     RetryPolicy
	pending   *InvoiceRequest
}

// WSFEOption configures a WSFEClient
type WSFEOption func(*WSFEClient)

// WithRetryPolicy sets how LastAuthorized and GetInvoice retry transport errors
func WithRetryPolicy(p RetryPolicy) WSFEOption {
	return func(c *WSFEClient) {
		c.retry = p
	}
}

// NewWSFEClient creates a client for the WSFEv1 endpoint at url
func NewWSFEClient(transport *Transport, url string, auth Auth, opts ...WSFEOption) *WSFEClient {
	c := &WSFEClient{
		transport: transport,
		url:       url,
		auth:      auth,
		retry:     DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWSFEFactory returns a ClientFactory producing WSFE clients for env.
func NewWSFEFactory(transport *Transport, env Environment, opts ...WSFEOption) ClientFactory {
	return func(auth Auth) InvoicingClient {
		return NewWSFEClient(transport, env.WSFEURL, auth, opts...)
	}
}

// LastAuthorized returns the highest authorized number for the type and point of sale.
func (c *WSFEClient) LastAuthorized(ctx context.Context, invoiceType, pointOfSale int) (int64, error) {
	var last int64
	err := c.retry.do(ctx, func() error {
		doc, op := c.newRequest("FECompUltimoAutorizado")
		op.CreateElement("ar:PtoVta").SetText(strconv.Itoa(pointOfSale))
		op.CreateElement("ar:CbteTipo").SetText(strconv.Itoa(invoiceType))

		result, err := c.call(ctx, "FECompUltimoAutorizado", doc)
		if err != nil {
			return err
		}

		last, err = parseInt64(childText(result, "CbteNro"))
		return err
	})
	return last, err
}

// CreateInvoice stages req for the next RequestCAE. Nothing is sent.
func (c *WSFEClient) CreateInvoice(req InvoiceRequest) error {
	if req.NumberFrom <= 0 || req.NumberTo < req.NumberFrom {
		return fmt.Errorf("invalid invoice number range %d-%d", req.NumberFrom, req.NumberTo)
	}
	c.pending = &req
	return nil
}

// RequestCAE submits the staged invoice through FECAESolicitar. It is never retried.
func (c *WSFEClient) RequestCAE(ctx context.Context) (CAEResult, error) {
	if c.pending == nil {
		return CAEResult{}, fmt.Errorf("no invoice staged")
	}
	req := *c.pending

	doc, op := c.newRequest("FECAESolicitar")
	writeCAERequest(op, req)

	result, err := c.call(ctx, "FECAESolicitar", doc)
	if err != nil {
		return CAEResult{}, err
	}

	det := result.FindElement("FeDetResp/FECAEDetResponse")
	if det == nil {
		return CAEResult{}, fmt.Errorf("FECAESolicitar response has no detail")
	}

	observations := parseObservations(det)
	if status := childText(det, "Resultado"); status != resultOK {
		return CAEResult{}, rejection(status, observations)
	}

	c.pending = nil
	return CAEResult{
		CAE:          childText(det, "CAE"),
		Expiration:   childText(det, "CAEFchVto"),
		Observations: observations,
	}, nil
}

// GetInvoice fetches an authorized invoice through FECompConsultar.
func (c *WSFEClient) GetInvoice(ctx context.Context, invoiceType, pointOfSale int, number int64) (InvoiceRecord, error) {
	var record InvoiceRecord
	err := c.retry.do(ctx, func() error {
		doc, op := c.newRequest("FECompConsultar")
		q := op.CreateElement("ar:FeCompConsReq")
		q.CreateElement("ar:CbteTipo").SetText(strconv.Itoa(invoiceType))
		q.CreateElement("ar:CbteNro").SetText(strconv.FormatInt(number, 10))
		q.CreateElement("ar:PtoVta").SetText(strconv.Itoa(pointOfSale))

		result, err := c.call(ctx, "FECompConsultar", doc)
		if err != nil {
			return err
		}

		get := result.FindElement("ResultGet")
		if get == nil {
			return fmt.Errorf("FECompConsultar response has no ResultGet")
		}
		record, err = parseInvoiceRecord(get)
		return err
	})
	return record, err
}

func (c *WSFEClient) newRequest(operation string) (*etree.Document, *etree.Element) {
	doc, body := newEnvelope("ar", wsfeNamespace)
	op := body.CreateElement("ar:" + operation)

	auth := op.CreateElement("ar:Auth")
	auth.CreateElement("ar:Token").SetText(c.auth.Token)
	auth.CreateElement("ar:Sign").SetText(c.auth.Sign)
	auth.CreateElement("ar:Cuit").SetText(c.auth.CUIT)

	return doc, op
}

// call posts the request and returns the <operation>Result element, turning a
// non-empty Errors list into a *FaultError.
func (c *WSFEClient) call(ctx context.Context, operation string, doc *etree.Document) (*etree.Element, error) {
	body, err := c.transport.Call(ctx, c.url, wsfeNamespace+operation, doc)
	if err != nil {
		return nil, err
	}

	result := body.FindElement("//" + operation + "Result")
	if result == nil {
		return nil, fmt.Errorf("%s response has no result", operation)
	}

	if errs := result.FindElements("Errors/Err"); len(errs) > 0 {
		return nil, collectFault(errs)
	}
	return result, nil
}

func writeCAERequest(op *etree.Element, req InvoiceRequest) {
	feReq := op.CreateElement("ar:FeCAEReq")

	cab := feReq.CreateElement("ar:FeCabReq")
	cab.CreateElement("ar:CantReg").SetText(strconv.FormatInt(req.NumberTo-req.NumberFrom+1, 10))
	cab.CreateElement("ar:PtoVta").SetText(strconv.Itoa(req.PointOfSale))
	cab.CreateElement("ar:CbteTipo").SetText(strconv.Itoa(req.Type))

	det := feReq.CreateElement("ar:FeDetReq").CreateElement("ar:FECAEDetRequest")
	det.CreateElement("ar:Concepto").SetText(strconv.Itoa(req.Concept))
	det.CreateElement("ar:DocTipo").SetText(strconv.Itoa(req.DocType))
	det.CreateElement("ar:DocNro").SetText(req.DocNumber)
	det.CreateElement("ar:CbteDesde").SetText(strconv.FormatInt(req.NumberFrom, 10))
	det.CreateElement("ar:CbteHasta").SetText(strconv.FormatInt(req.NumberTo, 10))
	det.CreateElement("ar:CbteFch").SetText(req.Date)
	det.CreateElement("ar:ImpTotal").SetText(money.FormatAmount(req.TotalAmount))
	det.CreateElement("ar:ImpTotConc").SetText(money.FormatAmount(money.Zero))
	det.CreateElement("ar:ImpNeto").SetText(money.FormatAmount(req.NetAmount))
	det.CreateElement("ar:ImpOpEx").SetText(money.FormatAmount(money.Zero))
	det.CreateElement("ar:ImpTrib").SetText(money.FormatAmount(money.Zero))
	det.CreateElement("ar:ImpIVA").SetText(money.FormatAmount(money.Zero))

	// services require a billing period and a due date
	if req.Concept != conceptProducts {
		det.CreateElement("ar:FchServDesde").SetText(req.Date)
		det.CreateElement("ar:FchServHasta").SetText(req.Date)
		det.CreateElement("ar:FchVtoPago").SetText(req.Date)
	}

	det.CreateElement("ar:MonId").SetText(currencyPesos)
	det.CreateElement("ar:MonCotiz").SetText("1")
}

func parseInvoiceRecord(get *etree.Element) (InvoiceRecord, error) {
	var (
		r   InvoiceRecord
		err error
	)

	ints := []struct {
		path string
		dst  *int
	}{
		{"DocTipo", &r.DocType},
		{"CbteTipo", &r.Type},
		{"Concepto", &r.Concept},
		{"PtoVta", &r.PointOfSale},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(childText(get, f.path)); err != nil {
			return InvoiceRecord{}, fmt.Errorf("ResultGet %s: %w", f.path, err)
		}
	}

	if r.Number, err = parseInt64(childText(get, "CbteDesde")); err != nil {
		return InvoiceRecord{}, fmt.Errorf("ResultGet CbteDesde: %w", err)
	}
	if r.Total, err = money.ParseAmount(childText(get, "ImpTotal")); err != nil {
		return InvoiceRecord{}, fmt.Errorf("ResultGet ImpTotal: %w", err)
	}

	r.DocNumber = childText(get, "DocNro")
	r.Date = childText(get, "CbteFch")
	r.CAE = childText(get, "CodAutorizacion")
	r.CAEExpiration = childText(get, "FchVto")
	return r, nil
}

func parseObservations(det *etree.Element) []Observation {
	var out []Observation
	for _, obs := range det.FindElements("Observaciones/Obs") {
		out = append(out, Observation{
			Code:    childText(obs, "Code"),
			Message: childText(obs, "Msg"),
		})
	}
	return out
}

func rejection(status string, observations []Observation) *FaultError {
	if len(observations) == 0 {
		return NewFaultError("", fmt.Sprintf("invoice rejected (result %q)", status))
	}
	msgs := make([]string, 0, len(observations))
	for _, o := range observations {
		msgs = append(msgs, o.Message)
	}
	return NewFaultError(observations[0].Code, strings.Join(msgs, "; "))
}

func collectFault(errs []*etree.Element) *FaultError {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, childText(e, "Msg"))
	}
	return NewFaultError(childText(errs[0], "Code"), strings.Join(msgs, "; "))
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
