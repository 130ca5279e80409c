package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

// RiskModelService manages the published risk scorer and training runs.
type RiskModelService interface {
	ModelInfo() dto.RiskModelInfo
	Train(ctx context.Context, req dto.TrainRequest) (*dto.TrainAccepted, error)
}

// RiskHandler exposes model-management endpoints.
type RiskHandler struct {
	risk RiskModelService
}

// NewRiskHandler constructs the risk handler.
func NewRiskHandler(risk RiskModelService) *RiskHandler {
	return &RiskHandler{risk: risk}
}

// ModelInfo describes the currently published scorer.
func (h *RiskHandler) ModelInfo(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.risk.ModelInfo())
}

// Train enqueues an offline training run and answers 202.
func (h *RiskHandler) Train(c *gin.Context) {
	var req dto.TrainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid training payload"))
			return
		}
	}

	accepted, err := h.risk.Train(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, accepted)
}
