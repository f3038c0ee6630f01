package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loancrm/internal/services"
)

type ReportHandler struct {
	Service *services.LeadService
}

func NewReportHandler(service *services.LeadService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// Pipeline godoc
// @Summary  Lead counts per status for the caller's organization
// @Tags     reports
// @Produce  json
// @Success  200 {array} models.LeadCounts
// @Router   /reports/pipeline [get]
func (h *ReportHandler) Pipeline(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}
	data, err := h.Service.PipelineReport(c.Request.Context(), acting)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
