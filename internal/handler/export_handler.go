package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/service"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

// ReportExporter renders downloadable course reports.
type ReportExporter interface {
	CourseReport(ctx context.Context, courseCode string, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler exposes report download endpoints.
type ExportHandler struct {
	exports ReportExporter
}

// NewExportHandler constructs the export handler.
func NewExportHandler(exports ReportExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// CourseReport streams a rendered course report. Format defaults to CSV.
func (h *ExportHandler) CourseReport(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))

	result, err := h.exports.CourseReport(c.Request.Context(), c.Param("code"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
