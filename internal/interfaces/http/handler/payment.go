package handler

import (
	"time"

	billingapp "github.com/campus/backend/internal/application/billing"
	"github.com/campus/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader carries the client-supplied key that makes payment
// registration safe to retry
const IdempotencyKeyHeader = "X-Idempotency-Key"

// PaymentHandler handles payment registration and receipt lookup endpoints
type PaymentHandler struct {
	BaseHandler
	allocationService *billingapp.AllocationService
	queryService      *billingapp.QueryService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	allocationService *billingapp.AllocationService,
	queryService *billingapp.QueryService,
) *PaymentHandler {
	return &PaymentHandler{
		allocationService: allocationService,
		queryService:      queryService,
	}
}

// RegisterPaymentRequest represents a request to register an incoming payment
// @Description Request body for registering a payment against a student account
type RegisterPaymentRequest struct {
	StudentAccountID string  `json:"student_account_id" binding:"required,uuid" example:"3f2b8c1d-9e4a-4f6b-8a7c-5d6e7f8a9b0c"`
	Amount           float64 `json:"amount" binding:"required,gt=0" example:"1500000"`
	PaymentDate      string  `json:"payment_date" binding:"omitempty" example:"2026-03-15"`
	Method           string  `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CARD OTHER" example:"BANK_TRANSFER"`
	Reference        string  `json:"reference" binding:"max=100" example:"transfer-8841"`
}

// Register godoc
// @ID           registerPayment
// @Summary      Register a payment
// @Description  Allocate an incoming payment across the student's registration fee and module installments
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        X-Idempotency-Key header string false "Idempotency key; replays are rejected"
// @Param        request body RegisterPaymentRequest true "Payment registration request"
// @Success      201 {object} APIResponse[billingapp.AllocationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /billing/payments [post]
func (h *PaymentHandler) Register(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	studentID, err := uuid.Parse(req.StudentAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid student account ID format")
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != "" {
		paymentDate, err = time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			h.BadRequest(c, "Invalid payment_date, expected YYYY-MM-DD")
			return
		}
	}

	userID, _ := getUserID(c)

	result, err := h.allocationService.Allocate(c.Request.Context(), billingapp.AllocateRequest{
		TenantID:         tenantID,
		StudentAccountID: studentID,
		Amount:           decimal.NewFromFloat(req.Amount),
		PaymentDate:      paymentDate,
		Method:           billing.PaymentMethod(req.Method),
		Reference:        req.Reference,
		RegisteredBy:     userID,
		IdempotencyKey:   c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByReceiptNumber godoc
// @ID           getPaymentByReceipt
// @Summary      Get a payment by receipt number
// @Description  Look up a single payment by its receipt number (REC-YYYYMM-NNNNN)
// @Tags         payments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        receiptNumber path string true "Receipt number"
// @Success      200 {object} APIResponse[billingapp.PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /billing/receipts/{receiptNumber} [get]
func (h *PaymentHandler) GetByReceiptNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	receiptNumber := c.Param("receiptNumber")
	if receiptNumber == "" {
		h.BadRequest(c, "Receipt number is required")
		return
	}

	payment, err := h.queryService.GetPaymentByReceiptNumber(c.Request.Context(), tenantID, receiptNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}
