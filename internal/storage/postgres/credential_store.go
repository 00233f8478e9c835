package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rezonia/afip-invoicer/internal/credentials"
)

// CredentialStore keeps the session of a single CUIT and service.
type CredentialStore struct {
	db      *gorm.DB
	cuit    string
	service string
}

// NewCredentialStore creates a store for the given identity.
func NewCredentialStore(db *gorm.DB, cuit, service string) *CredentialStore {
	return &CredentialStore{db: db, cuit: cuit, service: service}
}

// Load returns an empty blob when no session was saved yet.
func (s *CredentialStore) Load(ctx context.Context) (credentials.Credentials, error) {
	var rec SessionRecord
	err := s.db.WithContext(ctx).
		Where("cuit = ? AND service = ?", s.cuit, s.service).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return credentials.Credentials{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s/%s: %w", s.cuit, s.service, err)
	}
	return rec.credentials(), nil
}

// Save upserts the session row. Keys other than the session ones are not stored.
func (s *CredentialStore) Save(ctx context.Context, c credentials.Credentials) error {
	rec := SessionRecord{CUIT: s.cuit, Service: s.service}
	rec.assign(c)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cuit"}, {Name: "service"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "sign", "expiration", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save session %s/%s: %w", s.cuit, s.service, err)
	}
	return nil
}

var _ credentials.Store = (*CredentialStore)(nil)
