// Package session caches WSAA login tickets and hands out authenticated
// WSFEv1 clients.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/model"
)

// Signer wraps a login ticket request in CMS SignedData.
type Signer interface {
	Sign(content []byte) ([]byte, error)
}

// Status summarizes the cached session without exposing secrets.
type Status struct {
	Active     bool       `json:"active"`
	Expiration *time.Time `json:"expiration,omitempty"`
	ExpiresIn  string     `json:"expires_in,omitempty"`
}

// Manager owns the credential cache of one CUIT. It is not safe for concurrent use.
type Manager struct {
	auth    afip.Authenticator
	signer  Signer
	factory afip.ClientFactory
	cuit    string
	service string
	ttl     time.Duration
	clock   clockwork.Clock
	log     zerolog.Logger
	creds   credentials.Credentials
}

// Option configures a Manager
type Option func(*Manager)

// WithCredentials seeds the cache. The map is copied.
func WithCredentials(c credentials.Credentials) Option {
	return func(m *Manager) {
		if c != nil {
			m.creds = c.Clone()
		}
	}
}

// WithClock sets the clock used for expiration checks
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithLogger sets the manager logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithService overrides the WSAA service name
func WithService(service string) Option {
	return func(m *Manager) {
		m.service = service
	}
}

// WithTTL overrides the requested ticket lifetime
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// NewManager creates a manager for cuit. factory builds the client handles
// returned by Client.
func NewManager(auth afip.Authenticator, signer Signer, factory afip.ClientFactory, cuit string, opts ...Option) *Manager {
	m := &Manager{
		auth:    auth,
		signer:  signer,
		factory: factory,
		cuit:    cuit,
		service: afip.DefaultService,
		ttl:     afip.DefaultTTL,
		clock:   clockwork.NewRealClock(),
		log:     zerolog.Nop(),
		creds:   credentials.Credentials{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ObtainSession returns the cached token and sign when still valid, and logs
// in to WSAA otherwise.
func (m *Manager) ObtainSession(ctx context.Context) (token, sign string, err error) {
	m.dropExpired()

	if m.creds.HasSession() {
		return m.creds.Token(), m.creds.Sign(), nil
	}

	result, err := m.login(ctx)
	if err != nil {
		return "", "", model.NewAuthenticationError(err)
	}

	m.creds.Set(result.Token, result.Sign, result.Expiration)
	m.log.Info().
		Str("cuit", m.cuit).
		Time("expiration", result.Expiration).
		Msg("obtained new session")

	return result.Token, result.Sign, nil
}

// Client returns an invoicing client bound to a valid session.
func (m *Manager) Client(ctx context.Context) (afip.InvoicingClient, error) {
	if m.factory == nil {
		return nil, errors.New("session: no client factory configured")
	}

	token, sign, err := m.ObtainSession(ctx)
	if err != nil {
		return nil, err
	}
	return m.factory(afip.Auth{Token: token, Sign: sign, CUIT: m.cuit}), nil
}

// Credentials returns a copy of the cache for persistence.
func (m *Manager) Credentials() credentials.Credentials {
	return m.creds.Clone()
}

// Invalidate drops the cached session so the next call logs in again.
func (m *Manager) Invalidate() {
	m.creds.Clear()
}

// Status reports whether a usable session is cached.
func (m *Manager) Status() Status {
	m.dropExpired()
	if !m.creds.HasSession() {
		return Status{}
	}

	s := Status{Active: true}
	if exp, ok, err := m.creds.Expiration(); ok && err == nil {
		s.Expiration = &exp
		s.ExpiresIn = exp.Sub(m.clock.Now()).Truncate(time.Second).String()
	}
	return s
}

// CUIT returns the taxpayer the manager authenticates as.
func (m *Manager) CUIT() string {
	return m.cuit
}

// dropExpired clears the cache when its expiration is in the past or unreadable.
func (m *Manager) dropExpired() {
	exp, ok, err := m.creds.Expiration()
	if !ok {
		return
	}
	if err != nil {
		m.log.Warn().Err(err).Msg("discarding session with unreadable expiration")
		m.creds.Clear()
		return
	}
	if exp.Before(m.clock.Now().UTC()) {
		m.log.Debug().Time("expiration", exp).Msg("cached session expired")
		m.creds.Clear()
	}
}

func (m *Manager) login(ctx context.Context) (afip.LoginResult, error) {
	tra, err := afip.NewLoginTicketRequest(m.service, m.ttl, m.clock.Now()).Marshal()
	if err != nil {
		return afip.LoginResult{}, err
	}

	cms, err := m.signer.Sign(tra)
	if err != nil {
		return afip.LoginResult{}, err
	}

	return m.auth.Authenticate(ctx, afip.LoginRequest{CMS: cms})
}
