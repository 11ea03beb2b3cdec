package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnrollRequest represents a request to enroll a student into a program
type EnrollRequest struct {
	TenantID            uuid.UUID
	StudentCode         string
	FullName            string
	ProgramID           uuid.UUID
	FirstCommitmentDate time.Time
	InitialPayment      decimal.Decimal // Optional registration payment collected at enrollment
	Method              billing.PaymentMethod
	Reference           string
	RegisteredBy        uuid.UUID
}

// EnrollResult is the outcome of an enrollment: the created account and, when
// an initial payment was collected, the allocation it produced
type EnrollResult struct {
	Account    StudentAccountResponse `json:"account"`
	Allocation *AllocationResult      `json:"allocation,omitempty"`
}

// EnrollmentService creates student accounts and runs the initial registration
// allocation when money is collected at enrollment time
type EnrollmentService struct {
	studentRepo billing.StudentAccountRepository
	programRepo billing.ProgramRepository
	allocator   *AllocationService
	events      shared.EventPublisher
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	studentRepo billing.StudentAccountRepository,
	programRepo billing.ProgramRepository,
	allocator *AllocationService,
) *EnrollmentService {
	return &EnrollmentService{
		studentRepo: studentRepo,
		programRepo: programRepo,
		allocator:   allocator,
	}
}

// WithEventPublisher attaches a publisher that receives the enrollment's
// domain events after the account has been persisted
func (s *EnrollmentService) WithEventPublisher(pub shared.EventPublisher) *EnrollmentService {
	s.events = pub
	return s
}

// Enroll creates a student account in the given program. When InitialPayment
// is positive the payment is allocated immediately; the account creation still
// stands if that allocation fails, so the caller can retry the payment alone.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	program, err := s.programRepo.FindByIDForTenant(ctx, req.TenantID, req.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return nil, shared.ErrNotFound
	}

	existing, err := s.studentRepo.FindByCode(ctx, req.TenantID, req.StudentCode)
	if err != nil {
		return nil, fmt.Errorf("failed to check student code: %w", err)
	}
	if existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	firstCommitmentDate := req.FirstCommitmentDate
	if firstCommitmentDate.IsZero() {
		firstCommitmentDate = startOfDay(time.Now()).AddDate(0, 0, program.PaymentFrequencyDays)
	}

	account, err := billing.NewStudentAccount(req.TenantID, req.StudentCode, req.FullName, program, firstCommitmentDate)
	if err != nil {
		return nil, err
	}
	if err := s.studentRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save student account: %w", err)
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, account.GetDomainEvents()...)
	}
	account.ClearDomainEvents()

	result := &EnrollResult{Account: NewStudentAccountResponse(account)}

	if req.InitialPayment.IsPositive() {
		allocation, err := s.allocator.Allocate(ctx, AllocateRequest{
			TenantID:         req.TenantID,
			StudentAccountID: account.GetID(),
			Amount:           req.InitialPayment,
			Method:           req.Method,
			Reference:        req.Reference,
			RegisteredBy:     req.RegisteredBy,
		})
		if err != nil {
			return nil, fmt.Errorf("enrollment saved but initial payment failed: %w", err)
		}
		result.Allocation = allocation
		result.Account = allocation.Account
	}

	return result, nil
}
