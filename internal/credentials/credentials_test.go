package credentials_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/afip-invoicer/internal/credentials"
)

func TestParseExpiration(t *testing.T) {
	art := time.FixedZone("", -3*60*60)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"afip millis", "2024-03-15T22:10:13.345-03:00", time.Date(2024, 3, 15, 22, 10, 13, 345000000, art)},
		{"micros", "2024-03-15T22:10:13.000001-03:00", time.Date(2024, 3, 15, 22, 10, 13, 1000, art)},
		{"no fraction", "2024-03-15T22:10:13-03:00", time.Date(2024, 3, 15, 22, 10, 13, 0, art)},
		{"compact offset", "2024-03-15T22:10:13.500000-0300", time.Date(2024, 3, 15, 22, 10, 13, 500000000, art)},
		{"utc", "2024-03-15T22:10:13Z", time.Date(2024, 3, 15, 22, 10, 13, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := credentials.ParseExpiration(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
		})
	}
}

func TestParseExpiration_Invalid(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2024-03-15", "2024-03-15T22:10:13"} {
		_, err := credentials.ParseExpiration(in)
		assert.Error(t, err, in)
	}
}

func TestFormatExpiration_RoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 15, 22, 10, 13, 345000000, time.FixedZone("", -3*60*60))

	s := credentials.FormatExpiration(in)
	assert.Equal(t, "2024-03-15T22:10:13.345000-03:00", s)

	out, err := credentials.ParseExpiration(s)
	require.NoError(t, err)
	assert.True(t, out.Equal(in))
}

func TestCredentials_SetAndClear(t *testing.T) {
	c := credentials.Credentials{"OTHER": "kept"}
	exp := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	c.Set("tok", "sig", exp)
	assert.True(t, c.HasSession())
	assert.Equal(t, "tok", c.Token())
	assert.Equal(t, "sig", c.Sign())

	got, ok, err := c.Expiration()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(exp))

	c.Clear()
	assert.False(t, c.HasSession())
	assert.NotContains(t, c, credentials.ExpirationKey)
	assert.Equal(t, "kept", c["OTHER"])
}

func TestCredentials_ExpirationAbsent(t *testing.T) {
	_, ok, err := credentials.Credentials{}.Expiration()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestCredentials_ExpirationMalformed(t *testing.T) {
	c := credentials.Credentials{credentials.ExpirationKey: "soon"}

	_, ok, err := c.Expiration()
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestCredentials_HasSessionNeedsBoth(t *testing.T) {
	assert.False(t, credentials.Credentials{credentials.TokenKey: "tok"}.HasSession())
	assert.False(t, credentials.Credentials{credentials.SignKey: "sig"}.HasSession())
}

func TestCredentials_Clone(t *testing.T) {
	c := credentials.Credentials{credentials.TokenKey: "tok"}
	clone := c.Clone()
	clone[credentials.TokenKey] = "changed"

	assert.Equal(t, "tok", c.Token())
}
