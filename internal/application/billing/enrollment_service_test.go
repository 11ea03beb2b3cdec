package billing

import (
	"context"
	"testing"
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEnrollmentFixture() (*allocatorFixture, *EnrollmentService) {
	f := newAllocatorFixture()
	service := NewEnrollmentService(f.studentRepo, f.programRepo, f.service)
	return f, service
}

func TestEnrollProgramNotFound(t *testing.T) {
	f, service := newEnrollmentFixture()
	tenantID := uuid.New()
	programID := uuid.New()

	f.programRepo.On("FindByIDForTenant", mock.Anything, tenantID, programID).Return(nil, nil)

	_, err := service.Enroll(context.Background(), EnrollRequest{
		TenantID:    tenantID,
		StudentCode: "STU-001",
		FullName:    "Maria Alejandra Gomez",
		ProgramID:   programID,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEnrollDuplicateStudentCode(t *testing.T) {
	f, service := newEnrollmentFixture()
	program := fixtureProgram(t, uuid.New())
	existing := fixtureStudent(t, program)

	f.programRepo.On("FindByIDForTenant", mock.Anything, program.TenantID, program.GetID()).Return(program, nil)
	f.studentRepo.On("FindByCode", mock.Anything, program.TenantID, "STU-001").Return(existing, nil)

	_, err := service.Enroll(context.Background(), EnrollRequest{
		TenantID:    program.TenantID,
		StudentCode: "STU-001",
		FullName:    "Maria Alejandra Gomez",
		ProgramID:   program.GetID(),
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	f.studentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEnrollWithoutInitialPayment(t *testing.T) {
	f, service := newEnrollmentFixture()
	program := fixtureProgram(t, uuid.New())
	firstDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	var saved *billing.StudentAccount
	f.programRepo.On("FindByIDForTenant", mock.Anything, program.TenantID, program.GetID()).Return(program, nil)
	f.studentRepo.On("FindByCode", mock.Anything, program.TenantID, "STU-001").Return(nil, nil)
	f.studentRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.StudentAccount)
	}).Return(nil)

	result, err := service.Enroll(context.Background(), EnrollRequest{
		TenantID:            program.TenantID,
		StudentCode:         "STU-001",
		FullName:            "Maria Alejandra Gomez",
		ProgramID:           program.GetID(),
		FirstCommitmentDate: firstDate,
	})
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, "STU-001", saved.StudentCode)
	assert.Equal(t, 0, saved.CurrentModule)
	assert.False(t, saved.IsRegistrationPaid())
	assert.True(t, saved.RegistrationBalance.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, saved.TotalProgramValue.Equal(decimal.NewFromInt(6000000)))
	assert.Equal(t, firstDate, saved.FirstCommitmentDate)

	assert.Nil(t, result.Allocation)
	assert.Equal(t, saved.GetID(), result.Account.ID)
	// no money collected, so nothing touches the payment side
	f.paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEnrollDefaultsFirstCommitmentDate(t *testing.T) {
	f, service := newEnrollmentFixture()
	program := fixtureProgram(t, uuid.New())

	var saved *billing.StudentAccount
	f.programRepo.On("FindByIDForTenant", mock.Anything, program.TenantID, program.GetID()).Return(program, nil)
	f.studentRepo.On("FindByCode", mock.Anything, program.TenantID, "STU-002").Return(nil, nil)
	f.studentRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.StudentAccount)
	}).Return(nil)

	_, err := service.Enroll(context.Background(), EnrollRequest{
		TenantID:    program.TenantID,
		StudentCode: "STU-002",
		FullName:    "Carlos Restrepo",
		ProgramID:   program.GetID(),
	})
	require.NoError(t, err)

	require.NotNil(t, saved)
	expected := startOfDay(time.Now()).AddDate(0, 0, program.PaymentFrequencyDays)
	assert.Equal(t, expected, saved.FirstCommitmentDate)
}

// Enrollment with money down runs the registration allocation in the same call
func TestEnrollWithInitialPayment(t *testing.T) {
	f, service := newEnrollmentFixture()
	program := fixtureProgram(t, uuid.New())
	registrar := uuid.New()

	var saved *billing.StudentAccount
	f.programRepo.On("FindByIDForTenant", mock.Anything, program.TenantID, program.GetID()).Return(program, nil).Twice()
	f.studentRepo.On("FindByCode", mock.Anything, program.TenantID, "STU-001").Return(nil, nil)
	f.studentRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.StudentAccount)
		// the allocator loads the account the enrollment just saved
		f.studentRepo.On("FindByIDForTenantLocked", mock.Anything, program.TenantID, saved.GetID()).Return(saved, nil)
		f.paymentRepo.On("SumByStudent", mock.Anything, program.TenantID, saved.GetID()).Return(decimal.Zero, nil)
	}).Return(nil)
	f.counterRepo.On("NextSequence", mock.Anything, program.TenantID, mock.Anything).Return(int64(1), nil)
	f.paymentRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.studentRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	result, err := service.Enroll(context.Background(), EnrollRequest{
		TenantID:       program.TenantID,
		StudentCode:    "STU-001",
		FullName:       "Maria Alejandra Gomez",
		ProgramID:      program.GetID(),
		InitialPayment: decimal.NewFromInt(400000),
		Method:         billing.PaymentMethodCash,
		RegisteredBy:   registrar,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Allocation)
	require.Len(t, result.Allocation.Payments, 1)
	assert.Equal(t, billing.PaymentTypeRegistration, result.Allocation.Payments[0].Type)
	assert.True(t, result.Allocation.Payments[0].Amount.Equal(decimal.NewFromInt(400000)))

	require.NotNil(t, saved)
	assert.True(t, saved.RegistrationBalance.Equal(decimal.NewFromInt(600000)))
	assert.False(t, result.Account.RegistrationPaid)
}

// Allocation failures after the account is saved surface the error but leave
// the enrollment in place for a retried payment
func TestEnrollInitialPaymentFailure(t *testing.T) {
	f, service := newEnrollmentFixture()
	program := fixtureProgram(t, uuid.New())

	var saved *billing.StudentAccount
	f.programRepo.On("FindByIDForTenant", mock.Anything, program.TenantID, program.GetID()).Return(program, nil)
	f.studentRepo.On("FindByCode", mock.Anything, program.TenantID, "STU-001").Return(nil, nil)
	f.studentRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.StudentAccount)
	}).Return(nil)

	_, err := service.Enroll(context.Background(), EnrollRequest{
		TenantID:       program.TenantID,
		StudentCode:    "STU-001",
		FullName:       "Maria Alejandra Gomez",
		ProgramID:      program.GetID(),
		InitialPayment: decimal.NewFromInt(400000),
		Method:         billing.PaymentMethod("BARTER"),
		RegisteredBy:   uuid.New(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial payment failed")
	// the account itself was persisted before the payment was attempted
	require.NotNil(t, saved)
	f.studentRepo.AssertCalled(t, "Save", mock.Anything, saved)
}
