// Package credentials holds the cached WSAA session: the token/sign pair and
// the instant it stops being accepted.
package credentials

import (
	"fmt"
	"time"
)

// Keys owned by the session cache. Any other key in the blob is preserved untouched.
const (
	TokenKey      = "TOKEN"
	SignKey       = "SIGN"
	ExpirationKey = "EXPIRATION"
)

// ExpirationLayout is the format expirations are written with.
const ExpirationLayout = "2006-01-02T15:04:05.000000-07:00"

// parse layouts, fractional seconds are accepted implicitly after the seconds field
var expirationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// Credentials is an opaque key-value blob persisted between runs.
type Credentials map[string]string

// Token returns the cached token, if any.
func (c Credentials) Token() string {
	return c[TokenKey]
}

// Sign returns the cached sign, if any.
func (c Credentials) Sign() string {
	return c[SignKey]
}

// HasSession reports whether both token and sign are present.
func (c Credentials) HasSession() bool {
	return c[TokenKey] != "" && c[SignKey] != ""
}

// Expiration returns the parsed expiration. ok is false when the key is absent.
func (c Credentials) Expiration() (t time.Time, ok bool, err error) {
	raw, ok := c[ExpirationKey]
	if !ok || raw == "" {
		return time.Time{}, false, nil
	}
	t, err = ParseExpiration(raw)
	return t, true, err
}

// Set stores a fresh session.
func (c Credentials) Set(token, sign string, expiration time.Time) {
	c[TokenKey] = token
	c[SignKey] = sign
	c[ExpirationKey] = FormatExpiration(expiration)
}

// Clear drops the three session keys.
func (c Credentials) Clear() {
	delete(c, TokenKey)
	delete(c, SignKey)
	delete(c, ExpirationKey)
}

// Clone returns an independent copy.
func (c Credentials) Clone() Credentials {
	out := make(Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// FormatExpiration renders t with microseconds and a numeric offset.
func FormatExpiration(t time.Time) string {
	return t.Format(ExpirationLayout)
}

// ParseExpiration accepts ISO-8601 timestamps with an offset written as
// -03:00 or -0300 and any number of fractional digits.
func ParseExpiration(s string) (time.Time, error) {
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized expiration %q", s)
}
