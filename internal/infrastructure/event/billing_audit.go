package event

import (
	"context"

	"github.com/campus/backend/internal/domain/billing"
	"github.com/campus/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BillingAuditHandler writes a structured audit line for every billing event.
// Receipts and module advances are money movements, so each one leaves a trace
// in the application log even when no other subscriber is interested.
type BillingAuditHandler struct {
	logger *zap.Logger
}

// NewBillingAuditHandler creates a new BillingAuditHandler
func NewBillingAuditHandler(logger *zap.Logger) *BillingAuditHandler {
	return &BillingAuditHandler{logger: logger}
}

// EventTypes returns the billing event types this handler subscribes to
func (h *BillingAuditHandler) EventTypes() []string {
	return []string{
		"StudentEnrolled",
		"RegistrationPaid",
		"CommitmentPaid",
		"PaymentRegistered",
		"StudentAccountCompleted",
	}
}

// Handle logs the event with its type-specific fields
func (h *BillingAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
	}

	switch e := event.(type) {
	case *billing.StudentEnrolledEvent:
		fields = append(fields,
			zap.String("student_code", e.StudentCode),
			zap.String("program_id", e.ProgramID.String()),
			zap.String("total_program_value", e.TotalProgramValue.String()),
		)
	case *billing.RegistrationPaidEvent:
		fields = append(fields, zap.String("student_code", e.StudentCode))
	case *billing.CommitmentPaidEvent:
		fields = append(fields,
			zap.Int("module_number", e.ModuleNumber),
			zap.Time("paid_at", e.PaidAt),
		)
	case *billing.PaymentRegisteredEvent:
		fields = append(fields,
			zap.String("receipt_number", e.ReceiptNumber),
			zap.String("amount", e.Amount.String()),
			zap.String("payment_type", string(e.Type)),
		)
	case *billing.StudentAccountCompletedEvent:
		fields = append(fields,
			zap.String("student_code", e.StudentCode),
			zap.Int("current_module", e.CurrentModule),
		)
	}

	h.logger.Info(event.EventType(), fields...)
	return nil
}

var _ shared.EventHandler = (*BillingAuditHandler)(nil)
