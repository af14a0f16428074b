package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/internal/service"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
	"github.com/lucena-edu/frequencia-api/pkg/response"
)

// ReportHandler serves rendered attendance reports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ClassroomAttendance renders the classroom attendance table as CSV or PDF.
func (h *ReportHandler) ClassroomAttendance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	report, err := h.reports.ClassroomAttendance(c.Request.Context(), claims.User(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", report.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
