package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

// NarrativeService generates prose summaries of analytics payloads.
type NarrativeService interface {
	InstructorNarrative(ctx context.Context, instructor string) (*dto.Narrative, error)
	StudentNarrative(ctx context.Context, studentID string) (*dto.Narrative, error)
	CourseRecommendations(ctx context.Context, studentID string) (*dto.Narrative, error)
}

// NarrativeHandler exposes LLM-backed narrative endpoints.
type NarrativeHandler struct {
	narratives NarrativeService
}

// NewNarrativeHandler constructs the narrative handler.
func NewNarrativeHandler(narratives NarrativeService) *NarrativeHandler {
	return &NarrativeHandler{narratives: narratives}
}

// Instructor returns a generated dashboard summary for one instructor.
func (h *NarrativeHandler) Instructor(c *gin.Context) {
	narrative, err := h.narratives.InstructorNarrative(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, narrative)
}

// Student returns a generated performance summary for one student.
func (h *NarrativeHandler) Student(c *gin.Context) {
	narrative, err := h.narratives.StudentNarrative(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, narrative)
}

// Recommendations returns generated course suggestions for one student.
func (h *NarrativeHandler) Recommendations(c *gin.Context) {
	narrative, err := h.narratives.CourseRecommendations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, narrative)
}
