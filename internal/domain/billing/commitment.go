package billing

import (
	"fmt"
	"time"

	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommitmentStatus represents the lifecycle of a module installment
type CommitmentStatus string

const (
	CommitmentStatusScheduled CommitmentStatus = "SCHEDULED" // Materialized ahead of time, not yet collectible
	CommitmentStatusPending   CommitmentStatus = "PENDING"   // Open installment with a remaining balance
	CommitmentStatusPaid      CommitmentStatus = "PAID"      // Fully settled, amount fixed at zero
)

// IsValid checks if the status is a valid CommitmentStatus
func (s CommitmentStatus) IsValid() bool {
	switch s {
	case CommitmentStatusScheduled, CommitmentStatusPending, CommitmentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of CommitmentStatus
func (s CommitmentStatus) String() string {
	return string(s)
}

// IsOpen returns true if the installment still carries debt
func (s CommitmentStatus) IsOpen() bool {
	return s == CommitmentStatusScheduled || s == CommitmentStatusPending
}

// Commitment represents one module installment owed by a student.
// Amount is the remaining balance, never the original value. Exactly one
// commitment exists per (studentAccountID, moduleNumber). PAID is terminal:
// the amount is fixed at zero and the row is never reopened.
type Commitment struct {
	shared.TenantAggregateRoot
	StudentAccountID uuid.UUID        `json:"student_account_id" gorm:"type:uuid;not null;uniqueIndex:idx_commitment_student_module,priority:1"`
	ModuleNumber     int              `json:"module_number" gorm:"not null;uniqueIndex:idx_commitment_student_module,priority:2"`
	Amount           decimal.Decimal  `json:"amount" gorm:"type:decimal(18,2);not null"`
	ScheduledDate    time.Time        `json:"scheduled_date" gorm:"not null;index"`
	Status           CommitmentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	PaidAt           *time.Time       `json:"paid_at"`
}

// TableName returns the table name for GORM
func (Commitment) TableName() string {
	return "payment_commitments"
}

// NewCommitment creates a module installment in the given status
func NewCommitment(
	tenantID uuid.UUID,
	studentAccountID uuid.UUID,
	moduleNumber int,
	amount valueobject.Money,
	scheduledDate time.Time,
	status CommitmentStatus,
) (*Commitment, error) {
	if studentAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Student account ID cannot be empty")
	}
	if moduleNumber < 1 {
		return nil, shared.NewDomainError("INVALID_MODULE_NUMBER", "Module number must be at least 1")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if scheduledDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Scheduled date is required")
	}
	if !status.IsValid() || status == CommitmentStatusPaid {
		return nil, shared.NewDomainError("INVALID_STATE", "New commitments must start SCHEDULED or PENDING")
	}

	return &Commitment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StudentAccountID:    studentAccountID,
		ModuleNumber:        moduleNumber,
		Amount:              amount.Amount(),
		ScheduledDate:       scheduledDate,
		Status:              status,
	}, nil
}

// GetAmountMoney returns the remaining balance as Money
func (c *Commitment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(c.Amount)
}

// IsPaid returns true if the installment is fully settled
func (c *Commitment) IsPaid() bool {
	return c.Status == CommitmentStatusPaid
}

// Activate transitions a SCHEDULED installment to PENDING, making it the
// current collectible obligation
func (c *Commitment) Activate() error {
	if c.Status != CommitmentStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot activate commitment in %s status", c.Status))
	}

	c.Status = CommitmentStatusPending
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// ApplyPayment absorbs up to the remaining balance from the given amount.
// Returns the portion applied and whether the installment was paid in full.
// A full payoff fixes the amount at zero and emits a CommitmentPaid event.
func (c *Commitment) ApplyPayment(amount valueobject.Money) (valueobject.Money, bool, error) {
	if c.Status != CommitmentStatusPending {
		return valueobject.Money{}, false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to commitment in %s status", c.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return valueobject.Money{}, false, shared.ErrInvalidAmount
	}

	appliedMoney, err := amount.Min(c.GetAmountMoney())
	if err != nil {
		return valueobject.Money{}, false, err
	}
	applied := appliedMoney.Amount()
	c.Amount = c.Amount.Sub(applied)

	paidInFull := c.Amount.IsZero()
	if paidInFull {
		now := time.Now()
		c.Status = CommitmentStatusPaid
		c.PaidAt = &now
		c.AddDomainEvent(NewCommitmentPaidEvent(c))
	}

	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return valueobject.NewMoneyCOP(applied), paidInFull, nil
}

// NextScheduledDate computes the due date for the installment following one
// scheduled at prior: the later of today and prior, plus the payment frequency
func NextScheduledDate(prior, today time.Time, paymentFrequencyDays int) time.Time {
	base := prior
	if today.After(prior) {
		base = today
	}
	return base.AddDate(0, 0, paymentFrequencyDays)
}

// MaterializeSchedule generates the full installment schedule for an account
// whose registration fee has just been settled. Module 1 starts PENDING at the
// account's first commitment date; the rest start SCHEDULED, spaced by the
// payment frequency. The amounts sum to exactly the financed value.
func MaterializeSchedule(account *StudentAccount, program *Program) ([]*Commitment, error) {
	if !account.IsRegistrationPaid() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot materialize schedule before registration is paid")
	}

	commitments := make([]*Commitment, 0, program.ModuleCount)
	for module := 1; module <= program.ModuleCount; module++ {
		status := CommitmentStatusScheduled
		if module == 1 {
			status = CommitmentStatusPending
		}
		scheduledDate := account.FirstCommitmentDate.AddDate(0, 0, (module-1)*account.PaymentFrequencyDays)

		commitment, err := NewCommitment(account.TenantID, account.GetID(), module, program.ModuleValueFor(module), scheduledDate, status)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, commitment)
	}

	return commitments, nil
}
