package persistence

import (
	"context"
	"errors"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// FindByReceiptNumber finds a payment by its receipt number within a tenant
func (r *GormPaymentRepository) FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*billing.Payment, error) {
	var payment billing.Payment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND receipt_number = ?", tenantID, receiptNumber).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// FindByStudent finds a student's payments, newest first
func (r *GormPaymentRepository) FindByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID, filter shared.Filter) ([]billing.Payment, error) {
	var payments []billing.Payment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_account_id = ?", tenantID, studentAccountID).
		Order("payment_date DESC, created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// CountByStudent counts a student's payments
func (r *GormPaymentRepository) CountByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("tenant_id = ? AND student_account_id = ?", tenantID, studentAccountID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumByStudent sums all money received from a student. This is the ledger
// total the allocation overpayment guard relies on.
func (r *GormPaymentRepository) SumByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND student_account_id = ?", tenantID, studentAccountID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates a payment row. Payments are immutable; there is no update path.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
