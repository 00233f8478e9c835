package invoicing

import (
	"context"
	"sync"

	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/model"
	"github.com/rezonia/afip-invoicer/internal/session"
)

// Sessions is what Backend needs from a session manager.
type Sessions interface {
	ClientProvider
	ObtainSession(ctx context.Context) (token, sign string, err error)
	Credentials() credentials.Credentials
	Invalidate()
	Status() session.Status
}

// Backend serializes commits and lookups over one session so it can be
// shared between goroutines.
type Backend struct {
	mu        sync.Mutex
	sessions  Sessions
	committer *Committer
	lookup    *Lookup
}

// NewBackend wires a committer and a lookup to the same session
func NewBackend(sessions Sessions, committer *Committer, lookup *Lookup) *Backend {
	return &Backend{
		sessions:  sessions,
		committer: committer,
		lookup:    lookup,
	}
}

// Commit is Committer.Commit under the backend lock.
func (b *Backend) Commit(ctx context.Context, r *model.Receipt) (*model.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committer.Commit(ctx, r)
}

// Fetch is Lookup.Fetch under the backend lock.
func (b *Backend) Fetch(ctx context.Context, identifier string) (*model.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookup.Fetch(ctx, identifier)
}

// FetchLast is Lookup.FetchLast under the backend lock.
func (b *Backend) FetchLast(ctx context.Context, prefix string, count int) ([]*model.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookup.FetchLast(ctx, prefix, count)
}

// Credentials returns a copy of the session cache for persistence.
func (b *Backend) Credentials() credentials.Credentials {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions.Credentials()
}

// SessionStatus reports the cached session state.
func (b *Backend) SessionStatus() session.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions.Status()
}

// RefreshSession drops the cached session and logs in again.
func (b *Backend) RefreshSession(ctx context.Context) (session.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions.Invalidate()
	if _, _, err := b.sessions.ObtainSession(ctx); err != nil {
		return session.Status{}, err
	}
	return b.sessions.Status(), nil
}
