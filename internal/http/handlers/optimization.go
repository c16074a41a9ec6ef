package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/engine/learning"
	"github.com/storelytic/storetwin-backend/internal/engine/optimizer"
	"github.com/storelytic/storetwin-backend/internal/http/response"
)

type OptimizationHandler struct {
	optimizer *optimizer.Service
	learner   *learning.Runner
}

func NewOptimizationHandler(opt *optimizer.Service, learner *learning.Runner) *OptimizationHandler {
	return &OptimizationHandler{optimizer: opt, learner: learner}
}

type optimizeRequest struct {
	OptimizationType string               `json:"optimization_type"`
	Parameters       optimizer.Parameters `json:"parameters"`
}

func (h *OptimizationHandler) Optimize(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("storeID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_store_id", err)
		return
	}

	var body optimizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
			return
		}
	}

	out, err := h.optimizer.Run(c.Request.Context(), optimizer.Request{
		StoreID:          storeID,
		OptimizationType: body.OptimizationType,
		Params:           body.Parameters,
	})
	if err != nil {
		switch {
		case errors.Is(err, optimizer.ErrStoreNotFound):
			response.RespondError(c, http.StatusNotFound, "store_not_found", err)
		case errors.Is(err, optimizer.ErrNoZones):
			response.RespondError(c, http.StatusUnprocessableEntity, "store_has_no_zones", err)
		default:
			response.RespondError(c, http.StatusInternalServerError, "optimization_failed", err)
		}
		return
	}
	response.RespondOK(c, out)
}

func (h *OptimizationHandler) RunLearning(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("storeID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_store_id", err)
		return
	}
	summary, err := h.learner.Run(c.Request.Context(), storeID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "learning_failed", err)
		return
	}
	response.RespondOK(c, summary)
}
