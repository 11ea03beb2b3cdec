package persistence

import (
	"context"
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReceiptCounter is the per-tenant, per-month receipt sequence row. Receipt
// numbers are issued from here under a row lock, never by scanning existing
// receipts, so a deleted or late-arriving payment can never cause a reissue.
type ReceiptCounter struct {
	TenantID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Period       string    `gorm:"type:varchar(6);primaryKey"`
	LastSequence int64     `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptCounter) TableName() string {
	return "receipt_counters"
}

// GormReceiptCounterRepository implements ReceiptCounterRepository using GORM
type GormReceiptCounterRepository struct {
	db *gorm.DB
}

// NewGormReceiptCounterRepository creates a new GormReceiptCounterRepository
func NewGormReceiptCounterRepository(db *gorm.DB) *GormReceiptCounterRepository {
	return &GormReceiptCounterRepository{db: db}
}

// NextSequence issues the next receipt sequence for the tenant and period.
// The counter row is locked FOR UPDATE, so concurrent transactions get
// strictly increasing numbers. Must run inside a transaction; the issued
// number is rolled back with it, which can leave gaps but never duplicates.
func (r *GormReceiptCounterRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, period string) (int64, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "period"}},
			DoNothing: true,
		}).
		Create(&ReceiptCounter{
			TenantID:  tenantID,
			Period:    period,
			UpdatedAt: time.Now(),
		}).Error; err != nil {
		return 0, err
	}

	var counter ReceiptCounter
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND period = ?", tenantID, period).
		First(&counter).Error; err != nil {
		return 0, err
	}

	next := counter.LastSequence + 1
	if err := r.db.WithContext(ctx).
		Model(&ReceiptCounter{}).
		Where("tenant_id = ? AND period = ?", tenantID, period).
		Updates(map[string]interface{}{
			"last_sequence": next,
			"updated_at":    time.Now(),
		}).Error; err != nil {
		return 0, err
	}

	return next, nil
}

// Ensure GormReceiptCounterRepository implements ReceiptCounterRepository
var _ billing.ReceiptCounterRepository = (*GormReceiptCounterRepository)(nil)
