package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rezonia/afip-invoicer/internal/credentials"
)

// openTestDB connects to AFIP_TEST_DATABASE_DSN or skips.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("AFIP_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("AFIP_TEST_DATABASE_DSN not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

// testCUIT returns an 11-digit CUIT not used by other runs.
func testCUIT() string {
	id := uuid.New()
	var n uint64
	for _, b := range id[:8] {
		n = n<<8 | uint64(b)
	}
	return fmt.Sprintf("9%010d", n%10_000_000_000)
}

func TestCredentialStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewCredentialStore(db, testCUIT(), "wsfe")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	c := credentials.Credentials{}
	c.Set("tok-1", "sig-1", time.Now().Add(time.Hour))
	require.NoError(t, store.Save(ctx, c))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", loaded.Token())
	assert.Equal(t, "sig-1", loaded.Sign())

	c.Set("tok-2", "sig-2", time.Now().Add(2*time.Hour))
	require.NoError(t, store.Save(ctx, c))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", loaded.Token())

	c.Clear()
	require.NoError(t, store.Save(ctx, c))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.HasSession())
}

func TestJournal_Record(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	journal := NewJournal(db)

	r := committedReceipt(t)
	r.Company.CUIT = testCUIT()

	require.NoError(t, journal.Record(ctx, r))
	require.NoError(t, journal.Record(ctx, r))

	rec, err := journal.Find(ctx, r.Company.CUIT, r.PointOfSale, r.Type, r.Number)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, r.CAE, rec.CAE)
	assert.Equal(t, "20.50", rec.Total.StringFixed(2))

	missing, err := journal.Find(ctx, r.Company.CUIT, r.PointOfSale, r.Type, r.Number+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestJournal_RejectsUncommitted(t *testing.T) {
	r := committedReceipt(t)
	r.CAE = ""

	err := NewJournal(nil).Record(context.Background(), r)
	assert.ErrorIs(t, err, errNotCommitted)
}
