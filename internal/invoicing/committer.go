// Package invoicing turns receipts into authorized invoices and reads them back.
package invoicing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rezonia/afip-invoicer/internal/afip"
	money "github.com/rezonia/afip-invoicer/internal/decimal"
	"github.com/rezonia/afip-invoicer/internal/model"
)

// DateLayout is the YYYYMMDD format used for invoice and CAE dates.
const DateLayout = "20060102"

// Committer submits receipts to WSFEv1.
//
// The next number is always last authorized + 1 as reported by AFIP; nothing
// is counted locally. Two committers issuing on the same point of sale and
// type at the same time can race for a number, and AFIP rejects the loser.
type Committer struct {
	sessions ClientProvider
	journal  Journal
	timeout  time.Duration
	log      zerolog.Logger
}

// CommitterOption configures a Committer
type CommitterOption func(*Committer)

// WithJournal records every committed receipt
func WithJournal(j Journal) CommitterOption {
	return func(c *Committer) {
		c.journal = j
	}
}

// WithCallTimeout bounds each remote call
func WithCallTimeout(d time.Duration) CommitterOption {
	return func(c *Committer) {
		c.timeout = d
	}
}

// WithCommitLogger sets the committer logger
func WithCommitLogger(l zerolog.Logger) CommitterOption {
	return func(c *Committer) {
		c.log = l
	}
}

// NewCommitter creates a committer obtaining clients from sessions
func NewCommitter(sessions ClientProvider, opts ...CommitterOption) *Committer {
	c := &Committer{
		sessions: sessions,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit validates r, obtains a number and a CAE, and writes them into r.
// On any failure r is left untouched.
func (c *Committer) Commit(ctx context.Context, r *model.Receipt) (*model.Receipt, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	client, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, err
	}

	last, err := c.lastAuthorized(ctx, client, r.Type, r.PointOfSale)
	if err != nil {
		return nil, model.NewRemoteServiceError(model.OpLastAuthorized, err)
	}
	number := last + 1

	total := money.Quantize(r.Total())
	req := afip.InvoiceRequest{
		Concept:     r.Concept,
		DocType:     r.Customer.IdentityDocumentType(),
		DocNumber:   r.Customer.IdentityDocument,
		Type:        r.Type,
		PointOfSale: r.PointOfSale,
		NumberFrom:  number,
		NumberTo:    number,
		NetAmount:   total,
		TotalAmount: total,
		Date:        r.Date.Format(DateLayout),
	}
	if err := client.CreateInvoice(req); err != nil {
		return nil, model.NewRemoteServiceError(model.OpCreateInvoice, err)
	}

	result, err := c.requestCAE(ctx, client)
	if err != nil {
		return nil, model.NewRemoteServiceError(model.OpRequestCAE, err)
	}

	expiration, err := time.Parse(DateLayout, result.Expiration)
	if err != nil {
		return nil, model.NewRemoteServiceError(model.OpRequestCAE, err)
	}

	r.ApplyAuthorization(number, result.CAE, expiration)

	logger := c.log.With().
		Int("pos", r.PointOfSale).
		Int("type", r.Type).
		Int64("number", number).
		Logger()
	for _, obs := range result.Observations {
		logger.Warn().Str("code", obs.Code).Msg(obs.Message)
	}
	logger.Info().Str("cae", result.CAE).Msg("receipt committed")

	if c.journal != nil {
		if err := c.journal.Record(ctx, r); err != nil {
			logger.Error().Err(err).Msg("failed to journal committed receipt")
		}
	}

	return r, nil
}

// Validate checks the preconditions of Commit without calling AFIP.
func Validate(r *model.Receipt) error {
	if r.IsCommitted() {
		return model.ErrAlreadyCommitted
	}
	if r.Customer == nil || r.Customer.Name == "" || r.Customer.IdentityDocument == "" {
		return model.ErrMissingCustomerData
	}
	if !money.IsPositive(money.Quantize(r.Total())) {
		return model.ErrEmptyInvoice
	}
	return nil
}

func (c *Committer) lastAuthorized(ctx context.Context, client afip.InvoicingClient, invoiceType, pos int) (int64, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	return client.LastAuthorized(ctx, invoiceType, pos)
}

func (c *Committer) requestCAE(ctx context.Context, client afip.InvoicingClient) (afip.CAEResult, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	return client.RequestCAE(ctx)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
