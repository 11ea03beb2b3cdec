package billing

import (
	"fmt"
	"time"

	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus represents the billing status of a student account
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"    // Enrolled, obligations outstanding
	AccountStatusCompleted AccountStatus = "COMPLETED" // Every module installment paid
)

// IsValid checks if the status is a valid AccountStatus
func (s AccountStatus) IsValid() bool {
	return s == AccountStatusActive || s == AccountStatusCompleted
}

// String returns the string representation of AccountStatus
func (s AccountStatus) String() string {
	return string(s)
}

// StudentAccount represents a student's billing state within a program.
// CurrentModule is monotonically non-decreasing: it only advances when the
// commitment for exactly CurrentModule+1 is paid in full.
// RegistrationBalance tracks the unpaid portion of the registration fee;
// module billing begins once it reaches zero.
type StudentAccount struct {
	shared.TenantAggregateRoot
	StudentCode          string          `json:"student_code" gorm:"type:varchar(50);not null;uniqueIndex:idx_student_account_tenant_code,priority:2"`
	FullName             string          `json:"full_name" gorm:"type:varchar(255);not null"`
	ProgramID            uuid.UUID       `json:"program_id" gorm:"type:uuid;not null;index"`
	CurrentModule        int             `json:"current_module" gorm:"not null;default:0"`
	RegistrationBalance  decimal.Decimal `json:"registration_balance" gorm:"type:decimal(18,2);not null"`
	TotalProgramValue    decimal.Decimal `json:"total_program_value" gorm:"type:decimal(18,2);not null"`
	PaymentFrequencyDays int             `json:"payment_frequency_days" gorm:"not null"`
	FirstCommitmentDate  time.Time       `json:"first_commitment_date" gorm:"not null"`
	Status               AccountStatus   `json:"status" gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (StudentAccount) TableName() string {
	return "student_accounts"
}

// NewStudentAccount creates a student account enrolled in the given program.
// Pricing terms are snapshotted so later program edits do not alter
// obligations already contracted.
func NewStudentAccount(
	tenantID uuid.UUID,
	studentCode string,
	fullName string,
	program *Program,
	firstCommitmentDate time.Time,
) (*StudentAccount, error) {
	if studentCode == "" {
		return nil, shared.NewDomainError("INVALID_STUDENT_CODE", "Student code cannot be empty")
	}
	if len(studentCode) > 50 {
		return nil, shared.NewDomainError("INVALID_STUDENT_CODE", "Student code cannot exceed 50 characters")
	}
	if fullName == "" {
		return nil, shared.NewDomainError("INVALID_STUDENT_NAME", "Student name cannot be empty")
	}
	if program == nil {
		return nil, shared.ErrNotFound
	}
	if !program.Active {
		return nil, shared.NewDomainError("INVALID_PROGRAM", "Program is not accepting enrollments")
	}
	if firstCommitmentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "First commitment date is required")
	}

	account := &StudentAccount{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		StudentCode:          studentCode,
		FullName:             fullName,
		ProgramID:            program.GetID(),
		CurrentModule:        0,
		RegistrationBalance:  program.RegistrationValue,
		TotalProgramValue:    program.TotalValue,
		PaymentFrequencyDays: program.PaymentFrequencyDays,
		FirstCommitmentDate:  firstCommitmentDate,
		Status:               AccountStatusActive,
	}

	account.AddDomainEvent(NewStudentEnrolledEvent(account))

	return account, nil
}

// IsRegistrationPaid returns true once the registration fee is fully settled
func (s *StudentAccount) IsRegistrationPaid() bool {
	return s.RegistrationBalance.LessThanOrEqual(decimal.Zero)
}

// GetRegistrationBalanceMoney returns the unpaid registration balance as Money
func (s *StudentAccount) GetRegistrationBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(s.RegistrationBalance)
}

// GetTotalProgramValueMoney returns the contracted program value as Money
func (s *StudentAccount) GetTotalProgramValueMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(s.TotalProgramValue)
}

// ApplyRegistrationPayment applies a payment against the registration balance
// and returns the portion actually absorbed, capped at the outstanding balance.
// When the balance reaches zero a RegistrationPaid event is emitted; the
// caller materializes the commitment schedule at that point.
func (s *StudentAccount) ApplyRegistrationPayment(amount valueobject.Money) (valueobject.Money, error) {
	if s.Status != AccountStatusActive {
		return valueobject.Money{}, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to account in %s status", s.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return valueobject.Money{}, shared.ErrInvalidAmount
	}
	if s.IsRegistrationPaid() {
		return valueobject.Money{}, shared.NewDomainError("INVALID_STATE", "Registration fee is already paid")
	}

	appliedMoney, err := amount.Min(s.GetRegistrationBalanceMoney())
	if err != nil {
		return valueobject.Money{}, err
	}
	applied := appliedMoney.Amount()
	s.RegistrationBalance = s.RegistrationBalance.Sub(applied)

	if s.IsRegistrationPaid() {
		s.AddDomainEvent(NewRegistrationPaidEvent(s))
	}

	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return valueobject.NewMoneyCOP(applied), nil
}

// AdvanceModule records that the installment for the given module number was
// paid in full. Advancement is strictly sequential.
func (s *StudentAccount) AdvanceModule(moduleNumber int) error {
	if s.Status != AccountStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot advance module on account in %s status", s.Status))
	}
	if moduleNumber != s.CurrentModule+1 {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Module %d cannot be completed while current module is %d", moduleNumber, s.CurrentModule))
	}

	s.CurrentModule = moduleNumber
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Complete marks the account as fully paid. Called when the last module
// installment transitions to PAID.
func (s *StudentAccount) Complete() error {
	if s.Status == AccountStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Account is already completed")
	}
	if !s.IsRegistrationPaid() {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete account with unpaid registration")
	}

	s.Status = AccountStatusCompleted
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	s.AddDomainEvent(NewStudentAccountCompletedEvent(s))

	return nil
}
