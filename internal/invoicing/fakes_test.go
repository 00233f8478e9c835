package invoicing_test

import (
	"context"
	"sync"
	"time"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/model"
	"github.com/rezonia/afip-invoicer/internal/session"
)

type fakeClient struct {
	last      int64
	lastErr   error
	lastCalls int

	created   []afip.InvoiceRequest
	createErr error

	cae      afip.CAEResult
	caeErr   error
	caeCalls int

	records  map[int64]afip.InvoiceRecord
	getErr   error
	getCalls []int64

	sawDeadline bool
}

func (f *fakeClient) LastAuthorized(ctx context.Context, _, _ int) (int64, error) {
	f.lastCalls++
	_, f.sawDeadline = ctx.Deadline()
	return f.last, f.lastErr
}

func (f *fakeClient) CreateInvoice(req afip.InvoiceRequest) error {
	f.created = append(f.created, req)
	return f.createErr
}

func (f *fakeClient) RequestCAE(context.Context) (afip.CAEResult, error) {
	f.caeCalls++
	return f.cae, f.caeErr
}

func (f *fakeClient) GetInvoice(_ context.Context, _, _ int, number int64) (afip.InvoiceRecord, error) {
	f.getCalls = append(f.getCalls, number)
	if f.getErr != nil {
		return afip.InvoiceRecord{}, f.getErr
	}
	rec, ok := f.records[number]
	if !ok {
		return afip.InvoiceRecord{}, afip.NewFaultError("602", "No existen datos")
	}
	return rec, nil
}

type fakeProvider struct {
	client *fakeClient
	err    error
	calls  int
}

func (p *fakeProvider) Client(context.Context) (afip.InvoicingClient, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.client, nil
}

type fakeSessions struct {
	fakeProvider
	creds       credentials.Credentials
	invalidated int
}

func (s *fakeSessions) ObtainSession(context.Context) (string, string, error) {
	s.creds = credentials.Credentials{credentials.TokenKey: "tok", credentials.SignKey: "sig"}
	return "tok", "sig", s.err
}

func (s *fakeSessions) Credentials() credentials.Credentials {
	return s.creds.Clone()
}

func (s *fakeSessions) Invalidate() {
	s.invalidated++
	s.creds = credentials.Credentials{}
}

func (s *fakeSessions) Status() session.Status {
	return session.Status{Active: s.creds.HasSession()}
}

type memoryJournal struct {
	mu       sync.Mutex
	recorded []*model.Receipt
	err      error
}

func (j *memoryJournal) Record(_ context.Context, r *model.Receipt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recorded = append(j.recorded, r)
	return j.err
}

type fakeAuthenticator struct {
	calls int
}

func (f *fakeAuthenticator) Authenticate(context.Context, afip.LoginRequest) (afip.LoginResult, error) {
	f.calls++
	return afip.LoginResult{Token: "tok", Sign: "sig", Expiration: time.Now().Add(time.Hour)}, nil
}

type nopSigner struct{}

func (nopSigner) Sign(content []byte) ([]byte, error) {
	return content, nil
}
