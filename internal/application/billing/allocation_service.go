package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocateRequest represents a request to allocate an incoming payment
type AllocateRequest struct {
	TenantID         uuid.UUID
	StudentAccountID uuid.UUID
	Amount           decimal.Decimal
	PaymentDate      time.Time
	Method           billing.PaymentMethod
	Reference        string
	RegisteredBy     uuid.UUID
	IdempotencyKey   string // Optional; replays with the same key are rejected
}

// AllocationService splits an incoming payment across the student's unpaid
// registration fee and sequential module installments, advancing the account
// state and producing receipt-numbered payment records. Every allocation runs
// inside one transaction with the student row locked for its duration.
type AllocationService struct {
	scope       TransactionScope
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	events      shared.EventPublisher
}

// NewAllocationService creates a new AllocationService without idempotency checking
func NewAllocationService(scope TransactionScope) *AllocationService {
	return &AllocationService{
		scope:      scope,
		idemConfig: shared.IdempotencyConfig{Enabled: false},
	}
}

// NewAllocationServiceWithIdempotency creates an AllocationService that rejects
// replayed idempotency keys through the given store
func NewAllocationServiceWithIdempotency(
	scope TransactionScope,
	store shared.IdempotencyStore,
	config shared.IdempotencyConfig,
) *AllocationService {
	return &AllocationService{
		scope:       scope,
		idempotency: store,
		idemConfig:  config,
	}
}

// WithEventPublisher attaches a publisher that receives the domain events
// raised during an allocation once the transaction has committed
func (s *AllocationService) WithEventPublisher(pub shared.EventPublisher) *AllocationService {
	s.events = pub
	return s
}

// Allocate applies an incoming payment to a student account.
//
// Order of application: registration balance first, then module installments
// in ascending module number. A payment that settles the registration and
// continues into modules produces two payment rows (REGISTRATION + MODULE),
// each with its own receipt number; the amounts always sum to the request
// amount. A payment exceeding the student's outstanding program balance is
// rejected before any mutation.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest) (*AllocationResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if !req.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is not valid")
	}
	if req.RegisteredBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Registered by is required")
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	// The key is claimed up front so concurrent duplicates cannot both enter
	// the transaction, and released again if the allocation does not commit;
	// a retry after a transient failure must be able to reuse the same key
	idemKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil && s.idemConfig.Enabled {
		idemKey = fmt.Sprintf("allocation:%s:%s", req.TenantID, req.IdempotencyKey)
		fresh, err := s.idempotency.MarkProcessed(ctx, idemKey, s.idemConfig.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if !fresh {
			return nil, shared.ErrDuplicateRequest
		}
	}

	var result *AllocationResult
	var raised []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		student, err := repos.StudentRepo().FindByIDForTenantLocked(ctx, req.TenantID, req.StudentAccountID)
		if err != nil {
			return fmt.Errorf("failed to lock student account: %w", err)
		}
		if student == nil {
			return shared.ErrNotFound
		}

		program, err := repos.ProgramRepo().FindByIDForTenant(ctx, req.TenantID, student.ProgramID)
		if err != nil {
			return fmt.Errorf("failed to load program: %w", err)
		}
		if program == nil {
			return shared.ErrNotFound
		}

		// Overpayment guard: outstanding balance comes from the payment
		// ledger, the single source of truth for money received
		totalPaid, err := repos.PaymentRepo().SumByStudent(ctx, req.TenantID, student.GetID())
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		outstanding := student.TotalProgramValue.Sub(totalPaid)
		if req.Amount.GreaterThan(outstanding) {
			return shared.ErrExceedsProgramBalance
		}

		remaining := valueobject.NewMoneyCOP(req.Amount)
		payments := make([]*billing.Payment, 0, 2)
		today := startOfDay(paymentDate)

		if !student.IsRegistrationPaid() {
			applied, err := student.ApplyRegistrationPayment(remaining)
			if err != nil {
				return err
			}

			payment, err := s.createPayment(ctx, repos, req, student, applied, paymentDate, billing.PaymentTypeRegistration, nil)
			if err != nil {
				return err
			}
			payments = append(payments, payment)

			if student.IsRegistrationPaid() {
				schedule, err := billing.MaterializeSchedule(student, program)
				if err != nil {
					return err
				}
				if err := repos.CommitmentRepo().SaveAll(ctx, schedule); err != nil {
					return fmt.Errorf("failed to materialize schedule: %w", err)
				}
			}

			remaining = remaining.MustSubtract(applied)
		}

		if remaining.IsPositive() {
			moduleTotal := valueobject.ZeroCOP()
			var firstModule *int

			current, err := s.currentCommitment(ctx, repos, student, program, today)
			if err != nil {
				return err
			}

			for remaining.IsPositive() && current != nil {
				applied, paidInFull, err := current.ApplyPayment(remaining)
				if err != nil {
					return err
				}
				if firstModule == nil {
					module := current.ModuleNumber
					firstModule = &module
				}
				moduleTotal = moduleTotal.MustAdd(applied)
				remaining = remaining.MustSubtract(applied)

				if err := repos.CommitmentRepo().SaveWithLock(ctx, current); err != nil {
					return fmt.Errorf("failed to save commitment: %w", err)
				}
				raised = append(raised, current.GetDomainEvents()...)
				current.ClearDomainEvents()

				if !paidInFull {
					break
				}

				if err := student.AdvanceModule(current.ModuleNumber); err != nil {
					return err
				}

				if current.ModuleNumber >= program.ModuleCount {
					if err := student.Complete(); err != nil {
						return err
					}
					current = nil
					continue
				}

				if !remaining.IsPositive() {
					current = nil
					continue
				}

				current, err = s.nextCommitment(ctx, repos, student, program, current, today)
				if err != nil {
					return err
				}
			}

			if moduleTotal.IsPositive() {
				payment, err := s.createPayment(ctx, repos, req, student, moduleTotal, paymentDate, billing.PaymentTypeModule, firstModule)
				if err != nil {
					return err
				}
				payments = append(payments, payment)
			}
		}

		// The ledger guard above makes a leftover impossible unless the
		// commitment balances have drifted from the program total; refuse
		// rather than drop money silently
		if remaining.IsPositive() {
			return shared.ErrExceedsProgramBalance
		}

		if err := repos.StudentRepo().SaveWithLock(ctx, student); err != nil {
			return fmt.Errorf("failed to save student account: %w", err)
		}

		raised = append(raised, student.GetDomainEvents()...)
		student.ClearDomainEvents()

		responses := make([]PaymentResponse, 0, len(payments))
		for _, p := range payments {
			raised = append(raised, p.GetDomainEvents()...)
			p.ClearDomainEvents()
			responses = append(responses, NewPaymentResponse(p))
		}
		result = &AllocationResult{
			Payments: responses,
			Account:  NewStudentAccountResponse(student),
		}
		return nil
	})
	if err != nil {
		if idemKey != "" {
			if relErr := s.idempotency.Release(ctx, idemKey); relErr != nil {
				return nil, fmt.Errorf("%w (idempotency key not released: %v)", err, relErr)
			}
		}
		return nil, err
	}

	// Best effort once the transaction has committed; the allocation stands
	// even if a subscriber fails
	if s.events != nil && len(raised) > 0 {
		_ = s.events.Publish(ctx, raised...)
	}

	return result, nil
}

// currentCommitment returns the open installment the payment should hit:
// the lowest-module PENDING commitment, or the next one activated or
// materialized when no PENDING row exists
func (s *AllocationService) currentCommitment(
	ctx context.Context,
	repos TransactionalRepositories,
	student *billing.StudentAccount,
	program *billing.Program,
	today time.Time,
) (*billing.Commitment, error) {
	current, err := repos.CommitmentRepo().FindOldestPending(ctx, student.TenantID, student.GetID())
	if err != nil {
		return nil, fmt.Errorf("failed to find pending commitment: %w", err)
	}
	if current != nil {
		return current, nil
	}
	return s.nextCommitment(ctx, repos, student, program, nil, today)
}

// nextCommitment activates the SCHEDULED installment for currentModule+1, or
// materializes it on the fly for accounts without a generated schedule (the
// fast path). Returns nil when the program has no modules left.
func (s *AllocationService) nextCommitment(
	ctx context.Context,
	repos TransactionalRepositories,
	student *billing.StudentAccount,
	program *billing.Program,
	prior *billing.Commitment,
	today time.Time,
) (*billing.Commitment, error) {
	if student.CurrentModule >= program.ModuleCount {
		return nil, nil
	}
	moduleNumber := student.CurrentModule + 1

	next, err := repos.CommitmentRepo().FindByStudentAndModule(ctx, student.TenantID, student.GetID(), moduleNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find commitment for module %d: %w", moduleNumber, err)
	}
	if next != nil {
		if next.IsPaid() {
			return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Commitment for module %d is already paid", moduleNumber))
		}
		if next.Status == billing.CommitmentStatusScheduled {
			if err := next.Activate(); err != nil {
				return nil, err
			}
			if err := repos.CommitmentRepo().SaveWithLock(ctx, next); err != nil {
				return nil, fmt.Errorf("failed to activate commitment: %w", err)
			}
		}
		return next, nil
	}

	var scheduledDate time.Time
	switch {
	case prior != nil:
		scheduledDate = billing.NextScheduledDate(prior.ScheduledDate, today, student.PaymentFrequencyDays)
	case moduleNumber == 1:
		scheduledDate = student.FirstCommitmentDate
	default:
		previous, err := repos.CommitmentRepo().FindByStudentAndModule(ctx, student.TenantID, student.GetID(), moduleNumber-1)
		if err != nil {
			return nil, fmt.Errorf("failed to find commitment for module %d: %w", moduleNumber-1, err)
		}
		if previous != nil {
			scheduledDate = billing.NextScheduledDate(previous.ScheduledDate, today, student.PaymentFrequencyDays)
		} else {
			scheduledDate = today.AddDate(0, 0, student.PaymentFrequencyDays)
		}
	}

	commitment, err := billing.NewCommitment(
		student.TenantID,
		student.GetID(),
		moduleNumber,
		program.ModuleValueFor(moduleNumber),
		scheduledDate,
		billing.CommitmentStatusPending,
	)
	if err != nil {
		return nil, err
	}
	if err := repos.CommitmentRepo().Save(ctx, commitment); err != nil {
		return nil, fmt.Errorf("failed to create commitment for module %d: %w", moduleNumber, err)
	}

	return commitment, nil
}

// createPayment issues the next monthly receipt number and persists one
// immutable payment row
func (s *AllocationService) createPayment(
	ctx context.Context,
	repos TransactionalRepositories,
	req AllocateRequest,
	student *billing.StudentAccount,
	amount valueobject.Money,
	paymentDate time.Time,
	paymentType billing.PaymentType,
	moduleNumber *int,
) (*billing.Payment, error) {
	period := billing.ReceiptPeriod(paymentDate)
	sequence, err := repos.ReceiptCounterRepo().NextSequence(ctx, req.TenantID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to issue receipt number: %w", err)
	}

	payment, err := billing.NewPayment(
		req.TenantID,
		student.GetID(),
		amount,
		paymentDate,
		req.Method,
		paymentType,
		moduleNumber,
		billing.FormatReceiptNumber(period, sequence),
		req.Reference,
		req.RegisteredBy,
	)
	if err != nil {
		return nil, err
	}
	if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	return payment, nil
}

// startOfDay truncates a timestamp to midnight in its location
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfDayUTC truncates a timestamp to UTC midnight, the zone scheduled
// dates are stored in
func startOfDayUTC(t time.Time) time.Time {
	return startOfDay(t.UTC())
}
