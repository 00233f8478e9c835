package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/model"
)

// placeholderItem is the single line a fetched receipt is rebuilt with; AFIP
// keeps the total, not the lines.
const placeholderItem = "Item"

// Lookup reads authorized receipts back from WSFEv1.
type Lookup struct {
	sessions ClientProvider
	timeout  time.Duration
	issuer   string
	log      zerolog.Logger
}

// LookupOption configures a Lookup
type LookupOption func(*Lookup)

// WithLookupTimeout bounds each remote call
func WithLookupTimeout(d time.Duration) LookupOption {
	return func(l *Lookup) {
		l.timeout = d
	}
}

// WithLookupLogger sets the lookup logger
func WithLookupLogger(log zerolog.Logger) LookupOption {
	return func(l *Lookup) {
		l.log = log
	}
}

// WithIssuerCUIT stamps the issuer CUIT on the placeholder company of fetched
// receipts, so their barcode number can be rebuilt.
func WithIssuerCUIT(cuit string) LookupOption {
	return func(l *Lookup) {
		l.issuer = cuit
	}
}

// NewLookup creates a lookup obtaining clients from sessions
func NewLookup(sessions ClientProvider, opts ...LookupOption) *Lookup {
	l := &Lookup{
		sessions: sessions,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fetch rebuilds the receipt identified by "pos:type:number".
func (l *Lookup) Fetch(ctx context.Context, identifier string) (*model.Receipt, error) {
	id, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	client, err := l.sessions.Client(ctx)
	if err != nil {
		return nil, err
	}
	return l.fetch(ctx, client, id)
}

// FetchLast returns up to count receipts ending at the last authorized one,
// newest first. It stops at number 1.
func (l *Lookup) FetchLast(ctx context.Context, prefix string, count int) ([]*model.Receipt, error) {
	p, err := ParsePrefix(prefix)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, model.NewValidationError("count", count, model.RuleMinCount, "count must be at least 1")
	}

	client, err := l.sessions.Client(ctx)
	if err != nil {
		return nil, err
	}

	last, err := l.lastAuthorized(ctx, client, p)
	if err != nil {
		return nil, model.NewRemoteServiceError(model.OpLastAuthorized, err)
	}

	receipts := make([]*model.Receipt, 0, count)
	for n := last; n >= 1 && len(receipts) < count; n-- {
		r, err := l.fetch(ctx, client, Identifier{PointOfSale: p.PointOfSale, Type: p.Type, Number: n})
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}

	l.log.Debug().Str("prefix", p.String()).Int64("last", last).Int("fetched", len(receipts)).Msg("fetched last receipts")
	return receipts, nil
}

func (l *Lookup) fetch(ctx context.Context, client afip.InvoicingClient, id Identifier) (*model.Receipt, error) {
	callCtx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	record, err := client.GetInvoice(callCtx, id.Type, id.PointOfSale, id.Number)
	if err != nil {
		return nil, model.NewRemoteServiceError(model.OpGetInvoice, err)
	}

	r, err := receiptFromRecord(record)
	if err != nil {
		return nil, model.NewRemoteServiceError(model.OpGetInvoice, fmt.Errorf("receipt %s: %w", id, err))
	}
	if l.issuer != "" {
		r.Company.CUIT = l.issuer
	}
	return r, nil
}

func (l *Lookup) lastAuthorized(ctx context.Context, client afip.InvoicingClient, p Prefix) (int64, error) {
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()
	return client.LastAuthorized(ctx, p.Type, p.PointOfSale)
}

// receiptFromRecord rebuilds a committed receipt. Issuer and customer name are
// not returned by AFIP, so placeholders stand in for them.
func receiptFromRecord(rec afip.InvoiceRecord) (*model.Receipt, error) {
	date, err := time.Parse(DateLayout, rec.Date)
	if err != nil {
		return nil, fmt.Errorf("invoice date %q: %w", rec.Date, err)
	}
	expiration, err := time.Parse(DateLayout, rec.CAEExpiration)
	if err != nil {
		return nil, fmt.Errorf("CAE expiration %q: %w", rec.CAEExpiration, err)
	}

	customer := &model.Customer{IdentityDocument: rec.DocNumber}
	r := model.NewReceipt(model.PlaceholderCompany(), customer, rec.PointOfSale,
		model.WithType(rec.Type),
		model.WithConcept(rec.Concept),
		model.WithDate(date))

	if _, err := r.AddItem(placeholderItem, 1, rec.Total); err != nil {
		return nil, err
	}
	r.ApplyAuthorization(rec.Number, rec.CAE, expiration)
	return r, nil
}
