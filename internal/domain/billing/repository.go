package billing

import (
	"context"
	"time"

	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtorFilter defines filtering options for debtor queries
type DebtorFilter struct {
	shared.Filter
	// Search matches against student code and full name
}

// DebtorRecord is a read model row for the arrears report: a student with at
// least one open commitment, enriched from the payment ledger
type DebtorRecord struct {
	StudentAccountID  uuid.UUID
	StudentCode       string
	FullName          string
	ProgramID         uuid.UUID
	CurrentModule     int
	TotalProgramValue decimal.Decimal
	TotalPaid         decimal.Decimal
	LastPaymentDate   *time.Time
	OverdueCount      int64
	OverdueAmount     decimal.Decimal
}

// CarteraBucket is one aggregate slice of open commitments
type CarteraBucket struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// ProgramRepository defines the interface for program persistence
type ProgramRepository interface {
	// FindByIDForTenant finds a program by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Program, error)

	// FindByCode finds a program by its code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, programCode string) (*Program, error)

	// FindAllForTenant finds all programs for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Program, error)

	// Save creates or updates a program
	Save(ctx context.Context, program *Program) error

	// CountForTenant counts programs for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// StudentAccountRepository defines the interface for student account persistence
type StudentAccountRepository interface {
	// FindByIDForTenant finds a student account by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StudentAccount, error)

	// FindByIDForTenantLocked loads the account under an exclusive row lock.
	// Must run inside a transaction; concurrent allocations on the same
	// student serialize on this lock.
	FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*StudentAccount, error)

	// FindByCode finds a student account by student code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, studentCode string) (*StudentAccount, error)

	// FindAllForTenant finds all student accounts for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StudentAccount, error)

	// Save creates or updates a student account
	Save(ctx context.Context, account *StudentAccount) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, account *StudentAccount) error

	// CountForTenant counts student accounts for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindDebtors returns students with at least one open commitment,
	// enriched with ledger totals, ordered by overdue severity
	FindDebtors(ctx context.Context, tenantID uuid.UUID, filter DebtorFilter) ([]DebtorRecord, error)

	// CountDebtors counts students with at least one open commitment
	CountDebtors(ctx context.Context, tenantID uuid.UUID, filter DebtorFilter) (int64, error)

	// DistinctTenantIDs lists every tenant that has at least one student account
	DistinctTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CommitmentRepository defines the interface for commitment persistence
type CommitmentRepository interface {
	// FindByIDForTenant finds a commitment by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Commitment, error)

	// FindByStudentAndModule finds the commitment for a specific module of a student
	FindByStudentAndModule(ctx context.Context, tenantID, studentAccountID uuid.UUID, moduleNumber int) (*Commitment, error)

	// FindOldestPending finds the open PENDING commitment with the lowest
	// module number for a student, or nil when none exists
	FindOldestPending(ctx context.Context, tenantID, studentAccountID uuid.UUID) (*Commitment, error)

	// FindAllForStudent finds all commitments for a student ordered by module number
	FindAllForStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) ([]Commitment, error)

	// Save creates or updates a commitment
	Save(ctx context.Context, commitment *Commitment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, commitment *Commitment) error

	// SaveAll persists a batch of commitments in one round trip
	SaveAll(ctx context.Context, commitments []*Commitment) error

	// AggregateOpen sums amount and counts open (non-PAID) commitments whose
	// scheduled date falls within the half-open range [from, to); nil bounds
	// are open-ended
	AggregateOpen(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (CarteraBucket, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByIDForTenant finds a payment by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindByReceiptNumber finds a payment by its receipt number for a tenant
	FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*Payment, error)

	// FindByStudent finds payments for a student ordered by payment date descending
	FindByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID, filter shared.Filter) ([]Payment, error)

	// CountByStudent counts payments for a student
	CountByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) (int64, error)

	// SumByStudent sums all payment amounts for a student from the ledger
	SumByStudent(ctx context.Context, tenantID, studentAccountID uuid.UUID) (decimal.Decimal, error)

	// Save creates a payment record
	Save(ctx context.Context, payment *Payment) error
}

// ReceiptCounterRepository issues monthly receipt sequence numbers.
// NextSequence must run inside a transaction: the counter row for the period
// is created on first use and incremented under an exclusive row lock, so
// numbers are unique and gap-free per tenant and calendar month.
type ReceiptCounterRepository interface {
	NextSequence(ctx context.Context, tenantID uuid.UUID, period string) (int64, error)
}
