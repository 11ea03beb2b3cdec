package handler

import (
	"strconv"
	"time"

	billingapp "github.com/campus/backend/internal/application/billing"
	"github.com/campus/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StudentAccountHandler handles student enrollment and account API endpoints
type StudentAccountHandler struct {
	BaseHandler
	enrollmentService *billingapp.EnrollmentService
	queryService      *billingapp.QueryService
}

// NewStudentAccountHandler creates a new StudentAccountHandler
func NewStudentAccountHandler(
	enrollmentService *billingapp.EnrollmentService,
	queryService *billingapp.QueryService,
) *StudentAccountHandler {
	return &StudentAccountHandler{
		enrollmentService: enrollmentService,
		queryService:      queryService,
	}
}

// EnrollStudentRequest represents a request to enroll a student into a program
// @Description Request body for enrolling a student
type EnrollStudentRequest struct {
	StudentCode         string   `json:"student_code" binding:"required,min=1,max=50" example:"STU-2026-001"`
	FullName            string   `json:"full_name" binding:"required,min=1,max=200" example:"Maria Alejandra Gomez"`
	ProgramID           string   `json:"program_id" binding:"required,uuid" example:"7d4a2c9e-1f3b-4e8a-9c5d-6b7a8f9e0d1c"`
	FirstCommitmentDate string   `json:"first_commitment_date" binding:"required" example:"2026-02-01"`
	InitialPayment      *float64 `json:"initial_payment" binding:"omitempty,gt=0" example:"400000"`
	Method              string   `json:"method" binding:"omitempty,oneof=CASH BANK_TRANSFER CARD OTHER" example:"CASH"`
	Reference           string   `json:"reference" binding:"max=100" example:"caja-01"`
}

// Enroll godoc
// @ID           enrollStudent
// @Summary      Enroll a student
// @Description  Create a student account in a program, optionally collecting the registration payment
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body EnrollStudentRequest true "Enrollment request"
// @Success      201 {object} APIResponse[billingapp.EnrollResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /billing/students [post]
func (h *StudentAccountHandler) Enroll(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	programID, err := uuid.Parse(req.ProgramID)
	if err != nil {
		h.BadRequest(c, "Invalid program ID format")
		return
	}

	firstCommitmentDate, err := time.Parse("2006-01-02", req.FirstCommitmentDate)
	if err != nil {
		h.BadRequest(c, "Invalid first_commitment_date, expected YYYY-MM-DD")
		return
	}

	userID, _ := getUserID(c)

	appReq := billingapp.EnrollRequest{
		TenantID:            tenantID,
		StudentCode:         req.StudentCode,
		FullName:            req.FullName,
		ProgramID:           programID,
		FirstCommitmentDate: firstCommitmentDate,
		Reference:           req.Reference,
		RegisteredBy:        userID,
	}
	if req.InitialPayment != nil {
		appReq.InitialPayment = decimal.NewFromFloat(*req.InitialPayment)
		appReq.Method = billing.PaymentMethod(req.Method)
		if appReq.Method == "" {
			appReq.Method = billing.PaymentMethodCash
		}
	}

	result, err := h.enrollmentService.Enroll(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID godoc
// @ID           getStudentAccount
// @Summary      Get a student account
// @Description  Retrieve a student account with its program and commitment schedule
// @Tags         students
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Student account ID"
// @Success      200 {object} APIResponse[billingapp.StudentAccountDetail]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /billing/students/{id} [get]
func (h *StudentAccountHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid student account ID format")
		return
	}

	detail, err := h.queryService.GetStudentAccount(c.Request.Context(), tenantID, studentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// ListPayments godoc
// @ID           listStudentPayments
// @Summary      List payments for a student
// @Description  Paginated payment history for a student account, newest first
// @Tags         students
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Student account ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]billingapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /billing/students/{id}/payments [get]
func (h *StudentAccountHandler) ListPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid student account ID format")
		return
	}

	page, pageSize := parsePagination(c)

	result, err := h.queryService.ListPayments(c.Request.Context(), tenantID, studentID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// parsePagination reads page/page_size query params with defaults
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
