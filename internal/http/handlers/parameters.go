package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/http/response"
	"github.com/storelytic/storetwin-backend/internal/services"
)

type ParameterHandler struct {
	params services.ParameterService
}

func NewParameterHandler(params services.ParameterService) *ParameterHandler {
	return &ParameterHandler{params: params}
}

func (h *ParameterHandler) Current(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("storeID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_store_id", err)
		return
	}
	row, err := h.params.Current(c.Request.Context(), storeID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, row)
}

func (h *ParameterHandler) History(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("storeID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_store_id", err)
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	rows, err := h.params.History(c.Request.Context(), storeID, limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": rows})
}
