package billing

import (
	"fmt"
	"time"

	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was collected
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentType distinguishes registration-fee payments from module installments
type PaymentType string

const (
	PaymentTypeRegistration PaymentType = "REGISTRATION"
	PaymentTypeModule       PaymentType = "MODULE"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeRegistration || t == PaymentTypeModule
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// Payment is the auditable record of money received from a student.
// Rows are immutable after creation. ModuleNumber is a label, not a live
// foreign key: the commitment it names may already be paid and mutated by
// the time the payment is read.
type Payment struct {
	shared.TenantAggregateRoot
	StudentAccountID uuid.UUID       `json:"student_account_id" gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	PaymentDate      time.Time       `json:"payment_date" gorm:"not null;index"`
	Method           PaymentMethod   `json:"method" gorm:"type:varchar(20);not null"`
	Type             PaymentType     `json:"type" gorm:"type:varchar(20);not null"`
	ModuleNumber     *int            `json:"module_number"`
	ReceiptNumber    string          `json:"receipt_number" gorm:"type:varchar(20);not null;uniqueIndex:idx_payment_tenant_receipt,priority:2"`
	Reference        string          `json:"reference" gorm:"type:varchar(100)"`
	RegisteredBy     uuid.UUID       `json:"registered_by" gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a payment record
func NewPayment(
	tenantID uuid.UUID,
	studentAccountID uuid.UUID,
	amount valueobject.Money,
	paymentDate time.Time,
	method PaymentMethod,
	paymentType PaymentType,
	moduleNumber *int,
	receiptNumber string,
	reference string,
	registeredBy uuid.UUID,
) (*Payment, error) {
	if studentAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Student account ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is not valid")
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment type is not valid")
	}
	if paymentType == PaymentTypeModule && (moduleNumber == nil || *moduleNumber < 1) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Module payments require a module number")
	}
	if paymentType == PaymentTypeRegistration && moduleNumber != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Registration payments do not carry a module number")
	}
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receipt number cannot be empty")
	}
	if registeredBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Registered by cannot be empty")
	}

	payment := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, registeredBy),
		StudentAccountID:    studentAccountID,
		Amount:              amount.Amount(),
		PaymentDate:         paymentDate,
		Method:              method,
		Type:                paymentType,
		ModuleNumber:        moduleNumber,
		ReceiptNumber:       receiptNumber,
		Reference:           reference,
		RegisteredBy:        registeredBy,
	}

	payment.AddDomainEvent(NewPaymentRegisteredEvent(payment))

	return payment, nil
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(p.Amount)
}

// ReceiptPeriod returns the calendar-month period component of a receipt
// number for the given date, formatted YYYYMM
func ReceiptPeriod(date time.Time) string {
	return date.Format("200601")
}

// FormatReceiptNumber builds the externally visible receipt identifier for a
// period and sequence. The REC-YYYYMM-NNNNN format appears on printed
// receipts and must stay stable.
func FormatReceiptNumber(period string, sequence int64) string {
	return fmt.Sprintf("REC-%s-%05d", period, sequence)
}
