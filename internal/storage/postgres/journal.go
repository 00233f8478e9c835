package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rezonia/afip-invoicer/internal/model"
)

var errNotCommitted = errors.New("record receipt: receipt has no CAE")

// Journal records authorized receipts. Recording the same number twice is a no-op.
type Journal struct {
	db *gorm.DB
}

// NewJournal creates a journal on db.
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Record inserts the receipt row.
func (j *Journal) Record(ctx context.Context, r *model.Receipt) error {
	if !r.IsCommitted() {
		return errNotCommitted
	}
	rec := NewReceiptRecord(r)
	err := j.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("record receipt %s: %w", r.Identifier(), err)
	}
	return nil
}

// Find returns the stored row for a receipt number, or nil.
func (j *Journal) Find(ctx context.Context, cuit string, pointOfSale, invoiceType int, number int64) (*ReceiptRecord, error) {
	var rec ReceiptRecord
	err := j.db.WithContext(ctx).
		Where("cuit = ? AND point_of_sale = ? AND type = ? AND number = ?", cuit, pointOfSale, invoiceType, number).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
