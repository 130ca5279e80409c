package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

// StudentMetricsService resolves per-student reports.
type StudentMetricsService interface {
	Metrics(ctx context.Context, studentID string) (*dto.StudentMetrics, bool, error)
}

// StudentHandler exposes student analytics endpoints.
type StudentHandler struct {
	students StudentMetricsService
}

// NewStudentHandler constructs the student handler.
func NewStudentHandler(students StudentMetricsService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Metrics returns the performance report for one student. Unknown students
// still answer 200 with the Error field set in the payload.
func (h *StudentHandler) Metrics(c *gin.Context) {
	metrics, cacheHit, err := h.students.Metrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics, map[string]interface{}{"cache": cacheHit})
}
