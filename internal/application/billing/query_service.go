package billing

import (
	"context"
	"fmt"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StudentAccountDetail is a student's billing snapshot with the installment
// schedule materialized so far
type StudentAccountDetail struct {
	Account     StudentAccountResponse `json:"account"`
	Program     ProgramResponse        `json:"program"`
	Commitments []CommitmentResponse   `json:"commitments"`
}

// QueryService serves the read-only billing lookups
type QueryService struct {
	studentRepo    billing.StudentAccountRepository
	programRepo    billing.ProgramRepository
	commitmentRepo billing.CommitmentRepository
	paymentRepo    billing.PaymentRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(
	studentRepo billing.StudentAccountRepository,
	programRepo billing.ProgramRepository,
	commitmentRepo billing.CommitmentRepository,
	paymentRepo billing.PaymentRepository,
) *QueryService {
	return &QueryService{
		studentRepo:    studentRepo,
		programRepo:    programRepo,
		commitmentRepo: commitmentRepo,
		paymentRepo:    paymentRepo,
	}
}

// GetStudentAccount returns the billing snapshot for one student
func (s *QueryService) GetStudentAccount(ctx context.Context, tenantID, studentAccountID uuid.UUID) (*StudentAccountDetail, error) {
	account, err := s.studentRepo.FindByIDForTenant(ctx, tenantID, studentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student account: %w", err)
	}
	if account == nil {
		return nil, shared.ErrNotFound
	}

	program, err := s.programRepo.FindByIDForTenant(ctx, tenantID, account.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return nil, shared.ErrNotFound
	}

	commitments, err := s.commitmentRepo.FindAllForStudent(ctx, tenantID, studentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load commitments: %w", err)
	}

	schedule := make([]CommitmentResponse, 0, len(commitments))
	for i := range commitments {
		schedule = append(schedule, NewCommitmentResponse(&commitments[i]))
	}

	return &StudentAccountDetail{
		Account:     NewStudentAccountResponse(account),
		Program:     NewProgramResponse(program),
		Commitments: schedule,
	}, nil
}

// ListPayments returns a student's payment history, newest first
func (s *QueryService) ListPayments(ctx context.Context, tenantID, studentAccountID uuid.UUID, page, limit int) (*shared.Paginated[PaymentResponse], error) {
	account, err := s.studentRepo.FindByIDForTenant(ctx, tenantID, studentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student account: %w", err)
	}
	if account == nil {
		return nil, shared.ErrNotFound
	}

	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if limit > 0 {
		filter.PageSize = limit
	}

	payments, err := s.paymentRepo.FindByStudent(ctx, tenantID, studentAccountID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.paymentRepo.CountByStudent(ctx, tenantID, studentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, NewPaymentResponse(&payments[i]))
	}

	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetPaymentByReceiptNumber resolves the externally visible receipt identifier
func (s *QueryService) GetPaymentByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*PaymentResponse, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receipt number cannot be empty")
	}

	payment, err := s.paymentRepo.FindByReceiptNumber(ctx, tenantID, receiptNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, shared.ErrNotFound
	}

	response := NewPaymentResponse(payment)
	return &response, nil
}

// ListPrograms returns the program catalog for a tenant
func (s *QueryService) ListPrograms(ctx context.Context, tenantID uuid.UUID, page, limit int) (*shared.Paginated[ProgramResponse], error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if limit > 0 {
		filter.PageSize = limit
	}

	programs, err := s.programRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	total, err := s.programRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count programs: %w", err)
	}

	responses := make([]ProgramResponse, 0, len(programs))
	for i := range programs {
		responses = append(responses, NewProgramResponse(&programs[i]))
	}

	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}
