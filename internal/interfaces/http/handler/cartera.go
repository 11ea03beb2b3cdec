package handler

import (
	billingapp "github.com/campus/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// CarteraHandler handles arrears reporting endpoints
type CarteraHandler struct {
	BaseHandler
	carteraService *billingapp.CarteraService
}

// NewCarteraHandler creates a new CarteraHandler
func NewCarteraHandler(carteraService *billingapp.CarteraService) *CarteraHandler {
	return &CarteraHandler{
		carteraService: carteraService,
	}
}

// GetStats godoc
// @ID           getCarteraStats
// @Summary      Get cartera statistics
// @Description  Aggregate outstanding debt into overdue, due-today and upcoming buckets
// @Tags         cartera
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Success      200 {object} APIResponse[billingapp.CarteraSummary]
// @Failure      500 {object} ErrorResponse
// @Router       /billing/cartera/stats [get]
func (h *CarteraHandler) GetStats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	stats, err := h.carteraService.GetCarteraStats(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// ListDebts godoc
// @ID           listDebts
// @Summary      List students with outstanding debt
// @Description  Paginated debtor list ordered by overdue amount, with ledger-derived balances
// @Tags         cartera
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        search query string false "Filter by student code or name"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]billingapp.DebtorResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /billing/cartera/debts [get]
func (h *CarteraHandler) ListDebts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	search := c.Query("search")
	page, pageSize := parsePagination(c)

	result, err := h.carteraService.GetDebts(c.Request.Context(), tenantID, search, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
