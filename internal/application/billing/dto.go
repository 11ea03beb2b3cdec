package billing

import (
	"time"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentResponse represents a payment record in API responses
type PaymentResponse struct {
	ID               uuid.UUID             `json:"id"`
	StudentAccountID uuid.UUID             `json:"student_account_id"`
	Amount           decimal.Decimal       `json:"amount"`
	PaymentDate      time.Time             `json:"payment_date"`
	Method           billing.PaymentMethod `json:"method"`
	Type             billing.PaymentType   `json:"type"`
	ModuleNumber     *int                  `json:"module_number,omitempty"`
	ReceiptNumber    string                `json:"receipt_number"`
	Reference        string                `json:"reference,omitempty"`
	RegisteredBy     uuid.UUID             `json:"registered_by"`
	CreatedAt        time.Time             `json:"created_at"`
}

// NewPaymentResponse maps a payment aggregate to its response shape
func NewPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		StudentAccountID: p.StudentAccountID,
		Amount:           p.Amount,
		PaymentDate:      p.PaymentDate,
		Method:           p.Method,
		Type:             p.Type,
		ModuleNumber:     p.ModuleNumber,
		ReceiptNumber:    p.ReceiptNumber,
		Reference:        p.Reference,
		RegisteredBy:     p.RegisteredBy,
		CreatedAt:        p.CreatedAt,
	}
}

// StudentAccountResponse represents a student's billing snapshot
type StudentAccountResponse struct {
	ID                  uuid.UUID             `json:"id"`
	StudentCode         string                `json:"student_code"`
	FullName            string                `json:"full_name"`
	ProgramID           uuid.UUID             `json:"program_id"`
	CurrentModule       int                   `json:"current_module"`
	RegistrationBalance decimal.Decimal       `json:"registration_balance"`
	RegistrationPaid    bool                  `json:"registration_paid"`
	TotalProgramValue   decimal.Decimal       `json:"total_program_value"`
	FirstCommitmentDate time.Time             `json:"first_commitment_date"`
	Status              billing.AccountStatus `json:"status"`
	CreatedAt           time.Time             `json:"created_at"`
	Version             int                   `json:"version"`
}

// NewStudentAccountResponse maps a student account to its response shape
func NewStudentAccountResponse(a *billing.StudentAccount) StudentAccountResponse {
	return StudentAccountResponse{
		ID:                  a.ID,
		StudentCode:         a.StudentCode,
		FullName:            a.FullName,
		ProgramID:           a.ProgramID,
		CurrentModule:       a.CurrentModule,
		RegistrationBalance: a.RegistrationBalance,
		RegistrationPaid:    a.IsRegistrationPaid(),
		TotalProgramValue:   a.TotalProgramValue,
		FirstCommitmentDate: a.FirstCommitmentDate,
		Status:              a.Status,
		CreatedAt:           a.CreatedAt,
		Version:             a.GetVersion(),
	}
}

// CommitmentResponse represents a module installment in API responses
type CommitmentResponse struct {
	ID            uuid.UUID                `json:"id"`
	ModuleNumber  int                      `json:"module_number"`
	Amount        decimal.Decimal          `json:"amount"`
	ScheduledDate time.Time                `json:"scheduled_date"`
	Status        billing.CommitmentStatus `json:"status"`
	PaidAt        *time.Time               `json:"paid_at,omitempty"`
}

// NewCommitmentResponse maps a commitment to its response shape
func NewCommitmentResponse(c *billing.Commitment) CommitmentResponse {
	return CommitmentResponse{
		ID:            c.ID,
		ModuleNumber:  c.ModuleNumber,
		Amount:        c.Amount,
		ScheduledDate: c.ScheduledDate,
		Status:        c.Status,
		PaidAt:        c.PaidAt,
	}
}

// AllocationResult is the outcome of one allocation call: the payment rows
// created (two when a payment spans registration and modules) and the
// account state after the allocation committed
type AllocationResult struct {
	Payments []PaymentResponse      `json:"payments"`
	Account  StudentAccountResponse `json:"account"`
}

// CarteraSummary aggregates outstanding debt into urgency buckets
type CarteraSummary struct {
	TotalPendingAmount decimal.Decimal       `json:"total_pending_amount"`
	TotalPendingCount  int64                 `json:"total_pending_count"`
	Overdue            billing.CarteraBucket `json:"overdue"`
	Today              billing.CarteraBucket `json:"today"`
	Upcoming           billing.CarteraBucket `json:"upcoming"`
}

// DebtorResponse represents one student in the arrears report
type DebtorResponse struct {
	StudentAccountID     uuid.UUID       `json:"student_account_id"`
	StudentCode          string          `json:"student_code"`
	FullName             string          `json:"full_name"`
	ProgramID            uuid.UUID       `json:"program_id"`
	CurrentModule        int             `json:"current_module"`
	TotalProgramValue    decimal.Decimal `json:"total_program_value"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	RemainingBalance     decimal.Decimal `json:"remaining_balance"`
	LastPaymentDate      *time.Time      `json:"last_payment_date,omitempty"`
	DaysSinceLastPayment *int            `json:"days_since_last_payment,omitempty"`
	OverdueCount         int64           `json:"overdue_count"`
	OverdueAmount        decimal.Decimal `json:"overdue_amount"`
}

// ProgramResponse represents a program in API responses
type ProgramResponse struct {
	ID                   uuid.UUID       `json:"id"`
	ProgramCode          string          `json:"program_code"`
	Name                 string          `json:"name"`
	TotalValue           decimal.Decimal `json:"total_value"`
	RegistrationValue    decimal.Decimal `json:"registration_value"`
	ModuleCount          int             `json:"module_count"`
	ModuleValue          decimal.Decimal `json:"module_value"`
	PaymentFrequencyDays int             `json:"payment_frequency_days"`
	Active               bool            `json:"active"`
}

// NewProgramResponse maps a program to its response shape
func NewProgramResponse(p *billing.Program) ProgramResponse {
	return ProgramResponse{
		ID:                   p.ID,
		ProgramCode:          p.ProgramCode,
		Name:                 p.Name,
		TotalValue:           p.TotalValue,
		RegistrationValue:    p.RegistrationValue,
		ModuleCount:          p.ModuleCount,
		ModuleValue:          p.ModuleValue().Amount(),
		PaymentFrequencyDays: p.PaymentFrequencyDays,
		Active:               p.Active,
	}
}
