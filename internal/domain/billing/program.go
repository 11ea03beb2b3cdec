package billing

import (
	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Program represents an educational program offering
// Its pricing terms (total value, registration fee, module count) are the
// source for every derived billing amount and are immutable during allocation
type Program struct {
	shared.TenantAggregateRoot
	ProgramCode          string          `json:"program_code" gorm:"type:varchar(50);not null;uniqueIndex:idx_program_tenant_code,priority:2"`
	Name                 string          `json:"name" gorm:"type:varchar(255);not null"`
	TotalValue           decimal.Decimal `json:"total_value" gorm:"type:decimal(18,2);not null"`
	RegistrationValue    decimal.Decimal `json:"registration_value" gorm:"type:decimal(18,2);not null"`
	ModuleCount          int             `json:"module_count" gorm:"not null"`
	PaymentFrequencyDays int             `json:"payment_frequency_days" gorm:"not null"`
	Active               bool            `json:"active" gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Program) TableName() string {
	return "programs"
}

// NewProgram creates a new program
func NewProgram(
	tenantID uuid.UUID,
	programCode string,
	name string,
	totalValue valueobject.Money,
	registrationValue valueobject.Money,
	moduleCount int,
	paymentFrequencyDays int,
) (*Program, error) {
	if programCode == "" {
		return nil, shared.NewDomainError("INVALID_PROGRAM_CODE", "Program code cannot be empty")
	}
	if len(programCode) > 50 {
		return nil, shared.NewDomainError("INVALID_PROGRAM_CODE", "Program code cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PROGRAM_NAME", "Program name cannot be empty")
	}
	if totalValue.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total value must be positive")
	}
	if registrationValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Registration value cannot be negative")
	}
	if registrationValue.Amount().GreaterThanOrEqual(totalValue.Amount()) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Registration value must be less than total value")
	}
	if moduleCount <= 0 {
		return nil, shared.NewDomainError("INVALID_MODULE_COUNT", "Module count must be positive")
	}
	if paymentFrequencyDays <= 0 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_FREQUENCY", "Payment frequency days must be positive")
	}

	return &Program{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		ProgramCode:          programCode,
		Name:                 name,
		TotalValue:           totalValue.Amount(),
		RegistrationValue:    registrationValue.Amount(),
		ModuleCount:          moduleCount,
		PaymentFrequencyDays: paymentFrequencyDays,
		Active:               true,
	}, nil
}

// ModuleValue returns the base installment amount for a single module:
// (totalValue - registrationValue) / moduleCount, rounded to 2 decimals.
// The last module may differ; use ModuleValueFor when building a schedule.
func (p *Program) ModuleValue() valueobject.Money {
	financed := valueobject.NewMoneyCOP(p.TotalValue.Sub(p.RegistrationValue))
	// ModuleCount is validated positive at construction
	value, _ := financed.DivideByInt(int64(p.ModuleCount))
	return value.Round(2)
}

// ModuleValueFor returns the installment amount for the given module. The
// last module absorbs the rounding remainder so the full schedule sums to
// exactly totalValue - registrationValue.
func (p *Program) ModuleValueFor(module int) valueobject.Money {
	base := p.ModuleValue()
	if module < p.ModuleCount {
		return base
	}
	financed := p.TotalValue.Sub(p.RegistrationValue)
	priorModules := base.Amount().Mul(decimal.NewFromInt(int64(p.ModuleCount - 1)))
	return valueobject.NewMoneyCOP(financed.Sub(priorModules))
}

// GetTotalValueMoney returns the total program value as Money
func (p *Program) GetTotalValueMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(p.TotalValue)
}

// GetRegistrationValueMoney returns the registration fee as Money
func (p *Program) GetRegistrationValueMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(p.RegistrationValue)
}

// Deactivate marks the program as no longer accepting enrollments
func (p *Program) Deactivate() {
	if !p.Active {
		return
	}
	p.Active = false
	p.IncrementVersion()
}
