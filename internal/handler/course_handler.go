package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

// CourseMetricsService resolves course or instructor aggregate reports.
type CourseMetricsService interface {
	Metrics(ctx context.Context, courseCode, instructor string) (*dto.CourseMetrics, bool, error)
}

// CourseHandler exposes course analytics endpoints.
type CourseHandler struct {
	courses CourseMetricsService
}

// NewCourseHandler constructs the course handler.
func NewCourseHandler(courses CourseMetricsService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// Metrics returns the aggregated report for a course code or an instructor.
func (h *CourseHandler) Metrics(c *gin.Context) {
	courseCode := c.Query("course_code")
	instructor := c.Query("instructor")

	metrics, cacheHit, err := h.courses.Metrics(c.Request.Context(), courseCode, instructor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics, map[string]interface{}{"cache": cacheHit})
}
