package afip

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const wsaaNamespace = "http://wsaa.view.sua.dvadac.desein.afip.gov"

// WSAAClient calls LoginCms.
type WSAAClient struct {
	transport *Transport
	url       string
}

// NewWSAAClient creates a WSAA client for the LoginCms endpoint at url
func NewWSAAClient(transport *Transport, url string) *WSAAClient {
	return &WSAAClient{transport: transport, url: url}
}

// Authenticate sends the CMS and parses the returned login ticket.
func (c *WSAAClient) Authenticate(ctx context.Context, req LoginRequest) (LoginResult, error) {
	doc, body := newEnvelope("wsaa", wsaaNamespace)
	login := body.CreateElement("wsaa:loginCms")
	login.CreateElement("wsaa:in0").SetText(base64.StdEncoding.EncodeToString(req.CMS))

	resp, err := c.transport.Call(ctx, c.url, "", doc)
	if err != nil {
		return LoginResult{}, err
	}

	ret := resp.FindElement("//loginCmsReturn")
	if ret == nil {
		return LoginResult{}, fmt.Errorf("loginCms response has no loginCmsReturn")
	}
	return ParseLoginTicketResponse(ret.Text())
}

// ParseLoginTicketResponse extracts token, sign and expiration from the
// loginTicketResponse document WSAA returns as an escaped string.
func ParseLoginTicketResponse(ticket string) (LoginResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(strings.TrimSpace(ticket)); err != nil {
		return LoginResult{}, fmt.Errorf("decode login ticket: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return LoginResult{}, fmt.Errorf("empty login ticket")
	}

	result := LoginResult{
		Token: childText(root, "credentials/token"),
		Sign:  childText(root, "credentials/sign"),
	}
	if result.Token == "" || result.Sign == "" {
		return LoginResult{}, fmt.Errorf("login ticket carries no credentials")
	}

	expiration := childText(root, "header/expirationTime")
	exp, err := time.Parse(time.RFC3339, expiration)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login ticket expiration %q: %w", expiration, err)
	}
	result.Expiration = exp

	return result, nil
}
