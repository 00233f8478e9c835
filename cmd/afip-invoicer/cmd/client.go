package cmd

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/logger"
	"github.com/rezonia/afip-invoicer/internal/storage/postgres"
	"github.com/rezonia/afip-invoicer/pkg/afipinvoice"
)

// invoicer bundles a client with the resources backing its stores.
type invoicer struct {
	*afipinvoice.Client
	sessions afipinvoice.CredentialStore
	db       *gorm.DB
}

func (i *invoicer) Close() {
	if i.db != nil {
		_ = postgres.Close(i.db)
	}
}

// newInvoicer builds a client from the resolved config. Sessions go to
// PostgreSQL when a DSN is configured and to the credentials file otherwise.
func newInvoicer(ctx context.Context) (*invoicer, error) {
	if err := cfg.ValidateIdentity(); err != nil {
		return nil, err
	}

	certPEM, err := os.ReadFile(cfg.Certificate)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	log := logger.WithComponent("afip-invoicer")
	opts := afipinvoice.DefaultOptions()
	opts.CUIT = cfg.CUIT
	opts.CertificatePEM = certPEM
	opts.PrivateKeyPEM = keyPEM
	opts.Production = cfg.Production
	opts.Timeout = cfg.Timeout
	opts.RateLimit = cfg.RateLimit
	opts.Logger = &log

	out := &invoicer{}
	if cfg.DatabaseDSN != "" {
		printVerbose("Using PostgreSQL session store\n")
		db, err := postgres.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		out.db = db
		opts.Store = postgres.NewCredentialStore(db, cfg.CUIT, afip.DefaultService)
		opts.Journal = postgres.NewJournal(db)
	} else {
		printVerbose("Using session file %s\n", cfg.Credentials)
		opts.Store = afipinvoice.NewFileStore(cfg.Credentials)
	}

	out.sessions = opts.Store

	client, err := afipinvoice.New(ctx, opts)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.Client = client
	printVerbose("Environment: %s\n", client.Environment().Name)
	return out, nil
}

// save persists the session cache. Failures are reported but do not fail
// the command, the receipt has already been authorized by then.
func (i *invoicer) save(ctx context.Context) {
	if err := i.Save(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save credentials: %v\n", err)
	}
}
