package afipinvoice

import (
	"context"
	"crypto/x509"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/invoicing"
	"github.com/rezonia/afip-invoicer/internal/session"
	"github.com/rezonia/afip-invoicer/internal/signature"
)

// Options configures a Client
type Options struct {
	CUIT           string
	CertificatePEM []byte
	PrivateKeyPEM  []byte

	// Environment overrides Production when set.
	Production  bool
	Environment *Environment

	Timeout   time.Duration // per remote call (default: 30s)
	RateLimit float64       // outgoing calls per second, 0 disables throttling
	Retry     *afip.RetryPolicy
	SHA1      bool // sign login tickets with SHA-1 instead of SHA-256

	Store      CredentialStore
	Journal    Journal
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// DefaultOptions returns homologation settings with a 30s timeout.
func DefaultOptions() Options {
	return Options{
		Timeout:   afip.DefaultTimeout,
		RateLimit: 5,
	}
}

// Client issues and reads back invoices for one CUIT. It is safe for
// concurrent use; calls are serialized.
type Client struct {
	backend *invoicing.Backend
	signer  *signature.Signer
	store   CredentialStore
	cuit    string
	env     Environment
}

// New parses the certificate material, loads cached credentials from
// opts.Store and wires the WSAA and WSFEv1 clients.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.CUIT == "" {
		return nil, fmt.Errorf("cuit is required")
	}

	var signerOpts []signature.SignerOption
	if opts.SHA1 {
		signerOpts = append(signerOpts, signature.WithSHA1())
	}
	signer, err := signature.NewSigner(opts.CertificatePEM, opts.PrivateKeyPEM, signerOpts...)
	if err != nil {
		return nil, err
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	env := afip.EnvironmentFor(opts.Production)
	if opts.Environment != nil {
		env = *opts.Environment
	}
	if opts.Timeout <= 0 {
		opts.Timeout = afip.DefaultTimeout
	}

	transportOpts := []afip.TransportOption{
		afip.WithLogger(logger.With().Str("component", "afip").Logger()),
		afip.WithRateLimit(opts.RateLimit, 1),
	}
	if opts.HTTPClient != nil {
		transportOpts = append(transportOpts, afip.WithHTTPClient(opts.HTTPClient))
	}
	transport := afip.NewTransport(transportOpts...)

	var wsfeOpts []afip.WSFEOption
	if opts.Retry != nil {
		wsfeOpts = append(wsfeOpts, afip.WithRetryPolicy(*opts.Retry))
	}

	cached := credentials.Credentials{}
	if opts.Store != nil {
		if cached, err = opts.Store.Load(ctx); err != nil {
			return nil, err
		}
	}

	manager := session.NewManager(
		afip.NewWSAAClient(transport, env.WSAAURL),
		signer,
		afip.NewWSFEFactory(transport, env, wsfeOpts...),
		opts.CUIT,
		session.WithCredentials(cached),
		session.WithLogger(logger.With().Str("component", "session").Str("cuit", opts.CUIT).Logger()),
	)

	committerOpts := []invoicing.CommitterOption{
		invoicing.WithCallTimeout(opts.Timeout),
		invoicing.WithCommitLogger(logger.With().Str("component", "committer").Logger()),
	}
	if opts.Journal != nil {
		committerOpts = append(committerOpts, invoicing.WithJournal(opts.Journal))
	}
	committer := invoicing.NewCommitter(manager, committerOpts...)
	lookup := invoicing.NewLookup(manager,
		invoicing.WithLookupTimeout(opts.Timeout),
		invoicing.WithIssuerCUIT(opts.CUIT),
		invoicing.WithLookupLogger(logger.With().Str("component", "lookup").Logger()),
	)

	return &Client{
		backend: invoicing.NewBackend(manager, committer, lookup),
		signer:  signer,
		store:   opts.Store,
		cuit:    opts.CUIT,
		env:     env,
	}, nil
}

// Issue commits r: it obtains the next number and a CAE and writes them into r.
func (c *Client) Issue(ctx context.Context, r *Receipt) (*Receipt, error) {
	return c.backend.Commit(ctx, r)
}

// Fetch reads back the receipt identified by "pos:type:number".
func (c *Client) Fetch(ctx context.Context, identifier string) (*Receipt, error) {
	return c.backend.Fetch(ctx, identifier)
}

// FetchLast reads the latest count receipts for "pos:type", newest first.
func (c *Client) FetchLast(ctx context.Context, prefix string, count int) ([]*Receipt, error) {
	return c.backend.FetchLast(ctx, prefix, count)
}

// SessionStatus reports the cached WSAA session.
func (c *Client) SessionStatus() SessionStatus {
	return c.backend.SessionStatus()
}

// RefreshSession forces a new WSAA login.
func (c *Client) RefreshSession(ctx context.Context) (SessionStatus, error) {
	return c.backend.RefreshSession(ctx)
}

// Credentials returns a copy of the session cache.
func (c *Client) Credentials() Credentials {
	return c.backend.Credentials()
}

// Save writes the session cache to the configured store, if any.
func (c *Client) Save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(ctx, c.backend.Credentials())
}

// Backend exposes the serialized backend, e.g. to mount the HTTP API.
func (c *Client) Backend() *invoicing.Backend {
	return c.backend
}

// Certificate returns the certificate login tickets are signed with.
func (c *Client) Certificate() *x509.Certificate {
	return c.signer.Certificate()
}

// CUIT returns the issuer CUIT.
func (c *Client) CUIT() string {
	return c.cuit
}

// Environment returns the AFIP deployment in use.
func (c *Client) Environment() Environment {
	return c.env
}
