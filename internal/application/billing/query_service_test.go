package billing

import (
	"context"
	"testing"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type queryFixture struct {
	studentRepo    *MockStudentAccountRepository
	programRepo    *MockProgramRepository
	commitmentRepo *MockCommitmentRepository
	paymentRepo    *MockPaymentRepository
	service        *QueryService
}

func newQueryFixture() *queryFixture {
	f := &queryFixture{
		studentRepo:    new(MockStudentAccountRepository),
		programRepo:    new(MockProgramRepository),
		commitmentRepo: new(MockCommitmentRepository),
		paymentRepo:    new(MockPaymentRepository),
	}
	f.service = NewQueryService(f.studentRepo, f.programRepo, f.commitmentRepo, f.paymentRepo)
	return f
}

func fixturePayment(t *testing.T, student *billing.StudentAccount, receipt string) *billing.Payment {
	t.Helper()
	payment, err := billing.NewPayment(
		student.TenantID,
		student.GetID(),
		valueobject.NewMoneyCOPFromFloat(400000),
		paymentDate,
		billing.PaymentMethodCash,
		billing.PaymentTypeRegistration,
		nil,
		receipt,
		"",
		uuid.New(),
	)
	require.NoError(t, err)
	return payment
}

func TestGetStudentAccount(t *testing.T) {
	f := newQueryFixture()
	program := fixtureProgram(t, uuid.New())
	student := fixtureStudent(t, program)
	commitments := []billing.Commitment{
		*fixtureCommitment(t, student, 1, billing.CommitmentStatusPending),
		*fixtureCommitment(t, student, 2, billing.CommitmentStatusScheduled),
	}

	f.studentRepo.On("FindByIDForTenant", mock.Anything, student.TenantID, student.GetID()).Return(student, nil)
	f.programRepo.On("FindByIDForTenant", mock.Anything, student.TenantID, student.ProgramID).Return(program, nil)
	f.commitmentRepo.On("FindAllForStudent", mock.Anything, student.TenantID, student.GetID()).Return(commitments, nil)

	detail, err := f.service.GetStudentAccount(context.Background(), student.TenantID, student.GetID())
	require.NoError(t, err)

	assert.Equal(t, student.GetID(), detail.Account.ID)
	assert.Equal(t, "STU-001", detail.Account.StudentCode)
	assert.False(t, detail.Account.RegistrationPaid)
	assert.Equal(t, "SYS-DEV", detail.Program.ProgramCode)
	require.Len(t, detail.Commitments, 2)
	assert.Equal(t, 1, detail.Commitments[0].ModuleNumber)
	assert.Equal(t, billing.CommitmentStatusPending, detail.Commitments[0].Status)
	assert.Equal(t, billing.CommitmentStatusScheduled, detail.Commitments[1].Status)
}

func TestGetStudentAccountNotFound(t *testing.T) {
	f := newQueryFixture()
	tenantID := uuid.New()
	studentID := uuid.New()

	f.studentRepo.On("FindByIDForTenant", mock.Anything, tenantID, studentID).Return(nil, nil)

	_, err := f.service.GetStudentAccount(context.Background(), tenantID, studentID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	f.programRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestListPayments(t *testing.T) {
	f := newQueryFixture()
	program := fixtureProgram(t, uuid.New())
	student := fixtureStudent(t, program)
	payments := []billing.Payment{
		*fixturePayment(t, student, "REC-202603-00002"),
		*fixturePayment(t, student, "REC-202603-00001"),
	}

	var captured shared.Filter
	f.studentRepo.On("FindByIDForTenant", mock.Anything, student.TenantID, student.GetID()).Return(student, nil)
	f.paymentRepo.On("FindByStudent", mock.Anything, student.TenantID, student.GetID(), mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(3).(shared.Filter)
	}).Return(payments, nil)
	f.paymentRepo.On("CountByStudent", mock.Anything, student.TenantID, student.GetID()).Return(int64(2), nil)

	result, err := f.service.ListPayments(context.Background(), student.TenantID, student.GetID(), 1, 50)
	require.NoError(t, err)

	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, 50, captured.PageSize)
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "REC-202603-00002", result.Items[0].ReceiptNumber)
	assert.Equal(t, "REC-202603-00001", result.Items[1].ReceiptNumber)
}

func TestListPaymentsUnknownStudent(t *testing.T) {
	f := newQueryFixture()
	tenantID := uuid.New()
	studentID := uuid.New()

	f.studentRepo.On("FindByIDForTenant", mock.Anything, tenantID, studentID).Return(nil, nil)

	_, err := f.service.ListPayments(context.Background(), tenantID, studentID, 1, 20)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	f.paymentRepo.AssertNotCalled(t, "FindByStudent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetPaymentByReceiptNumber(t *testing.T) {
	f := newQueryFixture()
	program := fixtureProgram(t, uuid.New())
	student := fixtureStudent(t, program)
	payment := fixturePayment(t, student, "REC-202603-00042")

	t.Run("found", func(t *testing.T) {
		f.paymentRepo.On("FindByReceiptNumber", mock.Anything, student.TenantID, "REC-202603-00042").Return(payment, nil)

		response, err := f.service.GetPaymentByReceiptNumber(context.Background(), student.TenantID, "REC-202603-00042")
		require.NoError(t, err)
		assert.Equal(t, "REC-202603-00042", response.ReceiptNumber)
		assert.True(t, response.Amount.Equal(decimal.NewFromInt(400000)))
	})

	t.Run("unknown receipt", func(t *testing.T) {
		f.paymentRepo.On("FindByReceiptNumber", mock.Anything, student.TenantID, "REC-209901-00001").Return(nil, nil)

		_, err := f.service.GetPaymentByReceiptNumber(context.Background(), student.TenantID, "REC-209901-00001")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("empty receipt number", func(t *testing.T) {
		_, err := f.service.GetPaymentByReceiptNumber(context.Background(), student.TenantID, "")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestListPrograms(t *testing.T) {
	f := newQueryFixture()
	tenantID := uuid.New()
	programs := []billing.Program{
		*fixtureProgram(t, tenantID),
	}

	f.programRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.Anything).Return(programs, nil)
	f.programRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(1), nil)

	result, err := f.service.ListPrograms(context.Background(), tenantID, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
	program := result.Items[0]
	assert.Equal(t, "SYS-DEV", program.ProgramCode)
	assert.True(t, program.TotalValue.Equal(decimal.NewFromInt(6000000)))
	assert.True(t, program.ModuleValue.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, 5, program.ModuleCount)
}
