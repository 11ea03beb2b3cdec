package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCommitmentRepository implements CommitmentRepository using GORM
type GormCommitmentRepository struct {
	db *gorm.DB
}

// NewGormCommitmentRepository creates a new GormCommitmentRepository
func NewGormCommitmentRepository(db *gorm.DB) *GormCommitmentRepository {
	return &GormCommitmentRepository{db: db}
}

// FindByIDForTenant finds a commitment by ID within a tenant
func (r *GormCommitmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Commitment, error) {
	var commitment billing.Commitment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&commitment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commitment, nil
}

// FindByStudentAndModule finds the commitment for a specific module of a student
func (r *GormCommitmentRepository) FindByStudentAndModule(ctx context.Context, tenantID, studentAccountID uuid.UUID, moduleNumber int) (*billing.Commitment, error) {
	var commitment billing.Commitment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_account_id = ? AND module_number = ?", tenantID, studentAccountID, moduleNumber).
		First(&commitment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commitment, nil
}

// FindOldestPending finds the PENDING commitment with the lowest module number
func (r *GormCommitmentRepository) FindOldestPending(ctx context.Context, tenantID, studentAccountID uuid.UUID) (*billing.Commitment, error) {
	var commitment billing.Commitment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_account_id = ? AND status = ?", tenantID, studentAccountID, billing.CommitmentStatusPending).
		Order("module_number ASC").
		First(&commitment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commitment, nil
}

// FindAllForStudent finds all commitments for a student ordered by module number
func (r *GormCommitmentRepository) FindAllForStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) ([]billing.Commitment, error) {
	var commitments []billing.Commitment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_account_id = ?", tenantID, studentAccountID).
		Order("module_number ASC").
		Find(&commitments).Error; err != nil {
		return nil, err
	}
	return commitments, nil
}

// Save creates or updates a commitment
func (r *GormCommitmentRepository) Save(ctx context.Context, commitment *billing.Commitment) error {
	return r.db.WithContext(ctx).Save(commitment).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormCommitmentRepository) SaveWithLock(ctx context.Context, commitment *billing.Commitment) error {
	result := r.db.WithContext(ctx).
		Model(commitment).
		Where("id = ? AND version = ?", commitment.ID, commitment.Version-1).
		Updates(map[string]interface{}{
			"amount":     commitment.Amount,
			"status":     commitment.Status,
			"paid_at":    commitment.PaidAt,
			"version":    commitment.Version,
			"updated_at": commitment.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveAll persists a batch of commitments in one round trip
func (r *GormCommitmentRepository) SaveAll(ctx context.Context, commitments []*billing.Commitment) error {
	if len(commitments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(commitments).Error
}

// AggregateOpen sums and counts open commitments scheduled within the
// half-open range [from, to)
func (r *GormCommitmentRepository) AggregateOpen(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (billing.CarteraBucket, error) {
	var bucket billing.CarteraBucket
	query := r.db.WithContext(ctx).Model(&billing.Commitment{}).
		Select("COALESCE(SUM(amount), 0) as amount, COUNT(*) as count").
		Where("tenant_id = ? AND status <> ?", tenantID, billing.CommitmentStatusPaid)

	if from != nil {
		query = query.Where("scheduled_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("scheduled_date < ?", *to)
	}

	if err := query.Scan(&bucket).Error; err != nil {
		return billing.CarteraBucket{}, err
	}
	return bucket, nil
}

// Ensure GormCommitmentRepository implements CommitmentRepository
var _ billing.CommitmentRepository = (*GormCommitmentRepository)(nil)
