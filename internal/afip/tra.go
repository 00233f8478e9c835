package afip

import (
	"time"

	"github.com/beevik/etree"
)

const (
	// DefaultService is the WSAA service name of WSFEv1.
	DefaultService = "wsfe"

	// DefaultTTL is the lifetime requested for a login ticket.
	DefaultTTL = 36000 * time.Second
)

// LoginTicketRequest (TRA) is the document signed and sent to WSAA.
type LoginTicketRequest struct {
	UniqueID       uint32
	GenerationTime time.Time
	ExpirationTime time.Time
	Service        string
}

// NewLoginTicketRequest builds a ticket valid from now-ttl to now+ttl, which
// absorbs clock skew between the caller and WSAA.
func NewLoginTicketRequest(service string, ttl time.Duration, now time.Time) LoginTicketRequest {
	return LoginTicketRequest{
		UniqueID:       uint32(now.Unix()),
		GenerationTime: now.Add(-ttl),
		ExpirationTime: now.Add(ttl),
		Service:        service,
	}
}

// Marshal renders the ticket as XML.
func (r LoginTicketRequest) Marshal() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("loginTicketRequest")
	root.CreateAttr("version", "1.0")

	header := root.CreateElement("header")
	header.CreateElement("uniqueId").SetText(formatUint(r.UniqueID))
	header.CreateElement("generationTime").SetText(r.GenerationTime.Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(r.ExpirationTime.Format(time.RFC3339))

	root.CreateElement("service").SetText(r.Service)

	return doc.WriteToBytes()
}
