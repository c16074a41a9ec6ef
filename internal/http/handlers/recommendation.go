package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/http/response"
	"github.com/storelytic/storetwin-backend/internal/services"
)

type RecommendationHandler struct {
	recs services.RecommendationService
}

func NewRecommendationHandler(recs services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recs: recs}
}

func (h *RecommendationHandler) List(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("storeID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_store_id", err)
		return
	}

	var statuses []string
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	rows, err := h.recs.List(c.Request.Context(), storeID, statuses, limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recommendations": rows})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *RecommendationHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_recommendation_id", err)
		return
	}
	var body updateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if strings.TrimSpace(body.Status) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_status", nil)
		return
	}

	rec, err := h.recs.UpdateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rec)
}

func (h *RecommendationHandler) RecordOutcome(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("storeID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_store_id", err)
		return
	}
	var body services.OutcomeInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if body.RecommendationID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "missing_recommendation_id", nil)
		return
	}

	row, err := h.recs.RecordOutcome(c.Request.Context(), body)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if row.StoreID != storeID {
		response.RespondError(c, http.StatusNotFound, "recommendation_not_found", nil)
		return
	}
	response.RespondOK(c, row)
}
