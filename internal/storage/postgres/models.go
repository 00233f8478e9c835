package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rezonia/afip-invoicer/internal/credentials"
	"github.com/rezonia/afip-invoicer/internal/model"
)

// SessionRecord is the cached WSAA session of one CUIT for one service.
type SessionRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CUIT       string    `gorm:"size:11;not null;uniqueIndex:idx_session_identity"`
	Service    string    `gorm:"size:32;not null;uniqueIndex:idx_session_identity"`
	Token      string    `gorm:"type:text"`
	Sign       string    `gorm:"type:text"`
	Expiration string    `gorm:"size:40"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BeforeCreate generates a UUID before inserting.
func (s *SessionRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for SessionRecord
func (SessionRecord) TableName() string {
	return "afip_sessions"
}

func (s *SessionRecord) credentials() credentials.Credentials {
	c := credentials.Credentials{}
	if s.Token != "" {
		c[credentials.TokenKey] = s.Token
	}
	if s.Sign != "" {
		c[credentials.SignKey] = s.Sign
	}
	if s.Expiration != "" {
		c[credentials.ExpirationKey] = s.Expiration
	}
	return c
}

func (s *SessionRecord) assign(c credentials.Credentials) {
	s.Token = c.Token()
	s.Sign = c.Sign()
	s.Expiration = c[credentials.ExpirationKey]
}

// ReceiptRecord is one receipt authorized by AFIP.
type ReceiptRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	CUIT          string          `gorm:"size:11;not null;uniqueIndex:idx_receipt_number"`
	PointOfSale   int             `gorm:"not null;uniqueIndex:idx_receipt_number"`
	Type          int             `gorm:"not null;uniqueIndex:idx_receipt_number"`
	Number        int64           `gorm:"not null;uniqueIndex:idx_receipt_number"`
	Concept       int             `gorm:"not null"`
	DocType       int             `gorm:"not null"`
	DocNumber     string          `gorm:"size:20;not null"`
	CustomerName  string          `gorm:"size:255"`
	Total         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	IssuedOn      time.Time       `gorm:"type:date;not null"`
	CAE           string          `gorm:"size:14;not null;index"`
	CAEExpiration time.Time       `gorm:"type:date;not null"`
	CreatedAt     time.Time
}

// BeforeCreate generates a UUID before inserting.
func (r *ReceiptRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for ReceiptRecord
func (ReceiptRecord) TableName() string {
	return "afip_receipts"
}

// NewReceiptRecord maps a committed receipt to its row.
func NewReceiptRecord(r *model.Receipt) ReceiptRecord {
	rec := ReceiptRecord{
		PointOfSale:   r.PointOfSale,
		Type:          r.Type,
		Number:        r.Number,
		Concept:       r.Concept,
		Total:         r.Total(),
		IssuedOn:      r.Date,
		CAE:           r.CAE,
		CAEExpiration: r.CAEExpiration,
	}
	if r.Company != nil {
		rec.CUIT = r.Company.CUIT
	}
	if r.Customer != nil {
		rec.DocType = r.Customer.IdentityDocumentType()
		rec.DocNumber = r.Customer.IdentityDocument
		rec.CustomerName = r.Customer.Name
	}
	return rec
}
