package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

// DashboardService composes instructor dashboards and at-risk listings.
type DashboardService interface {
	ForInstructor(ctx context.Context, instructor string) (*dto.Dashboard, bool, error)
	AtRiskStudents(ctx context.Context, courseCode, instructor string) ([]dto.AtRiskStudent, bool, error)
}

// DashboardHandler exposes the instructor dashboard endpoint.
type DashboardHandler struct {
	dashboards DashboardService
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(dashboards DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// ForInstructor returns the composed dashboard for one instructor name.
func (h *DashboardHandler) ForInstructor(c *gin.Context) {
	dashboard, cacheHit, err := h.dashboards.ForInstructor(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, map[string]interface{}{"cache": cacheHit})
}

// AtRisk lists at-risk students filtered by course code or instructor.
func (h *DashboardHandler) AtRisk(c *gin.Context) {
	students, cacheHit, err := h.dashboards.AtRiskStudents(c.Request.Context(), c.Query("course_code"), c.Query("instructor"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"cache": cacheHit})
}
