package billing

import (
	"time"

	"github.com/campus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StudentEnrolledEvent is raised when a student account is created
type StudentEnrolledEvent struct {
	shared.BaseDomainEvent
	StudentAccountID    uuid.UUID       `json:"student_account_id"`
	StudentCode         string          `json:"student_code"`
	ProgramID           uuid.UUID       `json:"program_id"`
	TotalProgramValue   decimal.Decimal `json:"total_program_value"`
	RegistrationBalance decimal.Decimal `json:"registration_balance"`
}

// EventType returns the event type name
func (e *StudentEnrolledEvent) EventType() string {
	return "StudentEnrolled"
}

// NewStudentEnrolledEvent creates a new StudentEnrolledEvent
func NewStudentEnrolledEvent(account *StudentAccount) *StudentEnrolledEvent {
	return &StudentEnrolledEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent("StudentEnrolled", "StudentAccount", account.ID, account.TenantID),
		StudentAccountID:    account.ID,
		StudentCode:         account.StudentCode,
		ProgramID:           account.ProgramID,
		TotalProgramValue:   account.TotalProgramValue,
		RegistrationBalance: account.RegistrationBalance,
	}
}

// RegistrationPaidEvent is raised when the registration balance reaches zero
type RegistrationPaidEvent struct {
	shared.BaseDomainEvent
	StudentAccountID uuid.UUID `json:"student_account_id"`
	StudentCode      string    `json:"student_code"`
	ProgramID        uuid.UUID `json:"program_id"`
}

// EventType returns the event type name
func (e *RegistrationPaidEvent) EventType() string {
	return "RegistrationPaid"
}

// NewRegistrationPaidEvent creates a new RegistrationPaidEvent
func NewRegistrationPaidEvent(account *StudentAccount) *RegistrationPaidEvent {
	return &RegistrationPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("RegistrationPaid", "StudentAccount", account.ID, account.TenantID),
		StudentAccountID: account.ID,
		StudentCode:      account.StudentCode,
		ProgramID:        account.ProgramID,
	}
}

// CommitmentPaidEvent is raised when a module installment is paid in full
type CommitmentPaidEvent struct {
	shared.BaseDomainEvent
	CommitmentID     uuid.UUID `json:"commitment_id"`
	StudentAccountID uuid.UUID `json:"student_account_id"`
	ModuleNumber     int       `json:"module_number"`
	PaidAt           time.Time `json:"paid_at"`
}

// EventType returns the event type name
func (e *CommitmentPaidEvent) EventType() string {
	return "CommitmentPaid"
}

// NewCommitmentPaidEvent creates a new CommitmentPaidEvent
func NewCommitmentPaidEvent(commitment *Commitment) *CommitmentPaidEvent {
	paidAt := time.Now()
	if commitment.PaidAt != nil {
		paidAt = *commitment.PaidAt
	}
	return &CommitmentPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CommitmentPaid", "Commitment", commitment.ID, commitment.TenantID),
		CommitmentID:     commitment.ID,
		StudentAccountID: commitment.StudentAccountID,
		ModuleNumber:     commitment.ModuleNumber,
		PaidAt:           paidAt,
	}
}

// PaymentRegisteredEvent is raised when a payment record is created
type PaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	PaymentID        uuid.UUID       `json:"payment_id"`
	StudentAccountID uuid.UUID       `json:"student_account_id"`
	Amount           decimal.Decimal `json:"amount"`
	Type             PaymentType     `json:"type"`
	ModuleNumber     *int            `json:"module_number,omitempty"`
	ReceiptNumber    string          `json:"receipt_number"`
}

// EventType returns the event type name
func (e *PaymentRegisteredEvent) EventType() string {
	return "PaymentRegistered"
}

// NewPaymentRegisteredEvent creates a new PaymentRegisteredEvent
func NewPaymentRegisteredEvent(payment *Payment) *PaymentRegisteredEvent {
	return &PaymentRegisteredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentRegistered", "Payment", payment.ID, payment.TenantID),
		PaymentID:        payment.ID,
		StudentAccountID: payment.StudentAccountID,
		Amount:           payment.Amount,
		Type:             payment.Type,
		ModuleNumber:     payment.ModuleNumber,
		ReceiptNumber:    payment.ReceiptNumber,
	}
}

// StudentAccountCompletedEvent is raised when the last module installment is paid
type StudentAccountCompletedEvent struct {
	shared.BaseDomainEvent
	StudentAccountID uuid.UUID `json:"student_account_id"`
	StudentCode      string    `json:"student_code"`
	ProgramID        uuid.UUID `json:"program_id"`
	CurrentModule    int       `json:"current_module"`
}

// EventType returns the event type name
func (e *StudentAccountCompletedEvent) EventType() string {
	return "StudentAccountCompleted"
}

// NewStudentAccountCompletedEvent creates a new StudentAccountCompletedEvent
func NewStudentAccountCompletedEvent(account *StudentAccount) *StudentAccountCompletedEvent {
	return &StudentAccountCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("StudentAccountCompleted", "StudentAccount", account.ID, account.TenantID),
		StudentAccountID: account.ID,
		StudentCode:      account.StudentCode,
		ProgramID:        account.ProgramID,
		CurrentModule:    account.CurrentModule,
	}
}
