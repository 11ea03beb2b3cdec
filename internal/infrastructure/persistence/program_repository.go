package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProgramRepository implements ProgramRepository using GORM
type GormProgramRepository struct {
	db *gorm.DB
}

// NewGormProgramRepository creates a new GormProgramRepository
func NewGormProgramRepository(db *gorm.DB) *GormProgramRepository {
	return &GormProgramRepository{db: db}
}

// FindByIDForTenant finds a program by ID within a tenant
func (r *GormProgramRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Program, error) {
	var program billing.Program
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&program).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &program, nil
}

// FindByCode finds a program by its code within a tenant
func (r *GormProgramRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, programCode string) (*billing.Program, error) {
	var program billing.Program
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND program_code = ?", tenantID, programCode).
		First(&program).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &program, nil
}

// FindAllForTenant finds all programs for a tenant
func (r *GormProgramRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Program, error) {
	var programs []billing.Program
	query := r.db.WithContext(ctx).Model(&billing.Program{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySearch(query, filter)
	query = query.Order("program_code ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit())

	if err := query.Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

// Save creates or updates a program
func (r *GormProgramRepository) Save(ctx context.Context, program *billing.Program) error {
	return r.db.WithContext(ctx).Save(program).Error
}

// CountForTenant counts programs for a tenant
func (r *GormProgramRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&billing.Program{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySearch(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormProgramRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(program_code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormProgramRepository implements ProgramRepository
var _ billing.ProgramRepository = (*GormProgramRepository)(nil)
