package handler

import (
	billingapp "github.com/campus/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// ProgramHandler handles program catalog endpoints
type ProgramHandler struct {
	BaseHandler
	queryService *billingapp.QueryService
}

// NewProgramHandler creates a new ProgramHandler
func NewProgramHandler(queryService *billingapp.QueryService) *ProgramHandler {
	return &ProgramHandler{
		queryService: queryService,
	}
}

// List godoc
// @ID           listPrograms
// @Summary      List programs
// @Description  Paginated program catalog for the tenant
// @Tags         programs
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]billingapp.ProgramResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /billing/programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	page, pageSize := parsePagination(c)

	result, err := h.queryService.ListPrograms(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
