package invoicing

import (
	"context"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/model"
)

// ClientProvider hands out authenticated invoicing clients.
type ClientProvider interface {
	Client(ctx context.Context) (afip.InvoicingClient, error)
}

// Journal records receipts after AFIP authorized them.
type Journal interface {
	Record(ctx context.Context, r *model.Receipt) error
}
