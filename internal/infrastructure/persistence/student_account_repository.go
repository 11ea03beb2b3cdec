package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStudentAccountRepository implements StudentAccountRepository using GORM
type GormStudentAccountRepository struct {
	db *gorm.DB
}

// NewGormStudentAccountRepository creates a new GormStudentAccountRepository
func NewGormStudentAccountRepository(db *gorm.DB) *GormStudentAccountRepository {
	return &GormStudentAccountRepository{db: db}
}

// FindByIDForTenant finds a student account by ID within a tenant
func (r *GormStudentAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.StudentAccount, error) {
	var account billing.StudentAccount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindByIDForTenantLocked loads the account under FOR UPDATE. Concurrent
// allocations for the same student serialize on this row lock, so the
// receipt sequence and commitment mutations observe committed state.
func (r *GormStudentAccountRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*billing.StudentAccount, error) {
	var account billing.StudentAccount
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindByCode finds a student account by student code within a tenant
func (r *GormStudentAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, studentCode string) (*billing.StudentAccount, error) {
	var account billing.StudentAccount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_code = ?", tenantID, studentCode).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindAllForTenant finds all student accounts for a tenant
func (r *GormStudentAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.StudentAccount, error) {
	var accounts []billing.StudentAccount
	query := r.db.WithContext(ctx).Model(&billing.StudentAccount{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySearch(query, filter.Search)
	sortField := ValidateSortField(filter.OrderBy, StudentAccountSortFields, "student_code")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.Limit())

	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates or updates a student account
func (r *GormStudentAccountRepository) Save(ctx context.Context, account *billing.StudentAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStudentAccountRepository) SaveWithLock(ctx context.Context, account *billing.StudentAccount) error {
	result := r.db.WithContext(ctx).
		Model(account).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]interface{}{
			"current_module":       account.CurrentModule,
			"registration_balance": account.RegistrationBalance,
			"status":               account.Status,
			"version":              account.Version,
			"updated_at":           account.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts student accounts for a tenant
func (r *GormStudentAccountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&billing.StudentAccount{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySearch(query, filter.Search)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindDebtors returns students with at least one open commitment. Totals come
// from the payment ledger; overdue figures from commitments scheduled before
// the current date. Ordered by overdue amount, worst first.
func (r *GormStudentAccountRepository) FindDebtors(ctx context.Context, tenantID uuid.UUID, filter billing.DebtorFilter) ([]billing.DebtorRecord, error) {
	var records []billing.DebtorRecord
	query := r.debtorQuery(ctx, tenantID, filter).
		Select(`
			sa.id as student_account_id,
			sa.student_code,
			sa.full_name,
			sa.program_id,
			sa.current_module,
			sa.total_program_value,
			COALESCE(led.total_paid, 0) as total_paid,
			led.last_payment_date,
			COALESCE(od.overdue_count, 0) as overdue_count,
			COALESCE(od.overdue_amount, 0) as overdue_amount
		`).
		Order("COALESCE(od.overdue_amount, 0) DESC, sa.student_code ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit())

	if err := query.Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountDebtors counts students with at least one open commitment
func (r *GormStudentAccountRepository) CountDebtors(ctx context.Context, tenantID uuid.UUID, filter billing.DebtorFilter) (int64, error) {
	var count int64
	if err := r.debtorQuery(ctx, tenantID, filter).
		Select("COUNT(sa.id)").
		Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormStudentAccountRepository) debtorQuery(ctx context.Context, tenantID uuid.UUID, filter billing.DebtorFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Table("student_accounts sa").
		Joins(`JOIN (
			SELECT student_account_id
			FROM payment_commitments
			WHERE tenant_id = ? AND status <> ?
			GROUP BY student_account_id
		) open ON open.student_account_id = sa.id`, tenantID, billing.CommitmentStatusPaid).
		Joins(`LEFT JOIN (
			SELECT student_account_id,
			       SUM(amount) as total_paid,
			       MAX(payment_date) as last_payment_date
			FROM payments
			WHERE tenant_id = ?
			GROUP BY student_account_id
		) led ON led.student_account_id = sa.id`, tenantID).
		Joins(`LEFT JOIN (
			SELECT student_account_id,
			       COUNT(*) as overdue_count,
			       SUM(amount) as overdue_amount
			FROM payment_commitments
			WHERE tenant_id = ? AND status <> ? AND scheduled_date < CURRENT_DATE
			GROUP BY student_account_id
		) od ON od.student_account_id = sa.id`, tenantID, billing.CommitmentStatusPaid).
		Where("sa.tenant_id = ?", tenantID)

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(sa.student_code) LIKE ? OR LOWER(sa.full_name) LIKE ?", pattern, pattern)
	}
	return query
}

// DistinctTenantIDs lists every tenant that has at least one student account
func (r *GormStudentAccountRepository) DistinctTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&billing.StudentAccount{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

func (r *GormStudentAccountRepository) applySearch(query *gorm.DB, search string) *gorm.DB {
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(student_code) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormStudentAccountRepository implements StudentAccountRepository
var _ billing.StudentAccountRepository = (*GormStudentAccountRepository)(nil)
