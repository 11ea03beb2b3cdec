package handler

import (
	"context"
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockStudentAccountRepository implements billing.StudentAccountRepository for testing
type MockStudentAccountRepository struct {
	mock.Mock
}

func (m *MockStudentAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.StudentAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.StudentAccount), args.Error(1)
}

func (m *MockStudentAccountRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*billing.StudentAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.StudentAccount), args.Error(1)
}

func (m *MockStudentAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, studentCode string) (*billing.StudentAccount, error) {
	args := m.Called(ctx, tenantID, studentCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.StudentAccount), args.Error(1)
}

func (m *MockStudentAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.StudentAccount, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.StudentAccount), args.Error(1)
}

func (m *MockStudentAccountRepository) Save(ctx context.Context, account *billing.StudentAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStudentAccountRepository) SaveWithLock(ctx context.Context, account *billing.StudentAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStudentAccountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStudentAccountRepository) FindDebtors(ctx context.Context, tenantID uuid.UUID, filter billing.DebtorFilter) ([]billing.DebtorRecord, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.DebtorRecord), args.Error(1)
}

func (m *MockStudentAccountRepository) CountDebtors(ctx context.Context, tenantID uuid.UUID, filter billing.DebtorFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStudentAccountRepository) DistinctTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockProgramRepository implements billing.ProgramRepository for testing
type MockProgramRepository struct {
	mock.Mock
}

func (m *MockProgramRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Program, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Program), args.Error(1)
}

func (m *MockProgramRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, programCode string) (*billing.Program, error) {
	args := m.Called(ctx, tenantID, programCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Program), args.Error(1)
}

func (m *MockProgramRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Program, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Program), args.Error(1)
}

func (m *MockProgramRepository) Save(ctx context.Context, program *billing.Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockProgramRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockCommitmentRepository implements billing.CommitmentRepository for testing
type MockCommitmentRepository struct {
	mock.Mock
}

func (m *MockCommitmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Commitment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) FindByStudentAndModule(ctx context.Context, tenantID, studentAccountID uuid.UUID, moduleNumber int) (*billing.Commitment, error) {
	args := m.Called(ctx, tenantID, studentAccountID, moduleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) FindOldestPending(ctx context.Context, tenantID, studentAccountID uuid.UUID) (*billing.Commitment, error) {
	args := m.Called(ctx, tenantID, studentAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) FindAllForStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) ([]billing.Commitment, error) {
	args := m.Called(ctx, tenantID, studentAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) Save(ctx context.Context, commitment *billing.Commitment) error {
	args := m.Called(ctx, commitment)
	return args.Error(0)
}

func (m *MockCommitmentRepository) SaveWithLock(ctx context.Context, commitment *billing.Commitment) error {
	args := m.Called(ctx, commitment)
	return args.Error(0)
}

func (m *MockCommitmentRepository) SaveAll(ctx context.Context, commitments []*billing.Commitment) error {
	args := m.Called(ctx, commitments)
	return args.Error(0)
}

func (m *MockCommitmentRepository) AggregateOpen(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (billing.CarteraBucket, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(billing.CarteraBucket), args.Error(1)
}

// MockPaymentRepository implements billing.PaymentRepository for testing
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*billing.Payment, error) {
	args := m.Called(ctx, tenantID, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID, filter shared.Filter) ([]billing.Payment, error) {
	args := m.Called(ctx, tenantID, studentAccountID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, studentAccountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, studentAccountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockReceiptCounterRepository implements billing.ReceiptCounterRepository for testing
type MockReceiptCounterRepository struct {
	mock.Mock
}

func (m *MockReceiptCounterRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, period string) (int64, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(int64), args.Error(1)
}
