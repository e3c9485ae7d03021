package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/voike/voike/internal/repo"
)

// ListPlans возвращает сохранённые планы с фильтрацией.
// GET /api/v1/plans?flow_id=...&limit=...&offset=...
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	filter := repo.PlanFilter{Limit: 50}

	if flowIDStr := r.URL.Query().Get("flow_id"); flowIDStr != "" {
		flowID, err := uuid.Parse(flowIDStr)
		if err != nil {
			BadRequest(w, "invalid flow_id")
			return
		}
		filter.FlowID = &flowID
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	plans, err := h.planRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]PlanResponse, len(plans))
	for i, p := range plans {
		result[i] = PlanFromDomain(p)
		// Граф в списке не отдаём, только счётчики.
		result[i].Graph = nil
	}

	List(w, result, len(result))
}

// GetPlan возвращает план по ID вместе с графом.
// GET /api/v1/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid plan id")
		return
	}

	plan, err := h.planRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "plan not found") {
		return
	}

	Success(w, PlanFromDomain(*plan))
}
