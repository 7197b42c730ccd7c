package api

import (
	"net/http"

	"voucherpos/internal/handler/httperr"
	"voucherpos/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct {
	reports queries.ReportQueries
}

func NewReportsHandler(reports queries.ReportQueries) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// @Summary Report summary
// @Description Totals and per-tier breakdown for the active and history sets
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} queries.ReportSummary
// @Router /reports/summary [get]
func (h *ReportsHandler) Summary(c *gin.Context) {
	summary, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to build report", nil)
		return
	}
	c.JSON(http.StatusOK, summary)
}
