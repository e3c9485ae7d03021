package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/voike/voike/internal/domain"
	"github.com/voike/voike/internal/parser"
	"github.com/voike/voike/internal/pipeline"
	"github.com/voike/voike/internal/repo"
	"github.com/voike/voike/internal/telemetry"
)

// ParseFlow разбирает FLOW-текст без сохранения.
// POST /api/v1/flows/parse
func (h *Handler) ParseFlow(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Source == "" {
		BadRequest(w, "source is required")
		return
	}

	res := parser.Parse(req.Source, parser.Options{Strict: req.Strict})
	Success(w, ParseResponseFromResult(res))
}

// PlanFlow компилирует план из FLOW-текста и сохраняет его.
// Flow заводится по имени из заголовка документа, исходный текст
// фиксируется новой версией.
// POST /api/v1/flows/plan
func (h *Handler) PlanFlow(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Source == "" {
		BadRequest(w, "source is required")
		return
	}

	compiled, err := pipeline.Compile(req.Source)
	if err != nil {
		InvalidState(w, err.Error())
		return
	}

	ctx := r.Context()

	flow, err := h.flowRepo.GetByName(ctx, compiled.Doc.Name)
	if errors.Is(err, repo.ErrNotFound) {
		flow = &domain.Flow{
			ID:       uuid.New(),
			Name:     compiled.Doc.Name,
			IsActive: true,
		}
		err = h.flowRepo.Create(ctx, flow)
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	version, err := h.flowRepo.CreateVersion(ctx, flow.ID, req.Source)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	graphJSON, err := json.Marshal(compiled.Graph)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	plan := &domain.Plan{
		ID:        uuid.New(),
		FlowID:    flow.ID,
		Version:   version.Version,
		FlowName:  compiled.Doc.Name,
		NodeCount: len(compiled.Graph.Nodes),
		EdgeCount: len(compiled.Graph.Edges),
		TotalCost: compiled.Graph.TotalCost(),
		Graph:     graphJSON,
	}

	if err := h.planRepo.Create(ctx, plan); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	telemetry.PlansCompiled.Inc()

	resp := PlanFromDomain(*plan)
	resp.Warnings = compiled.Warnings
	Created(w, resp)
}

// ListFlows возвращает список всех flows.
// GET /api/v1/flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := h.flowRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]FlowResponse, len(flows))
	for i, f := range flows {
		result[i] = FlowFromDomain(f)
	}

	List(w, result, len(result))
}

// GetFlow возвращает flow по ID.
// GET /api/v1/flows/{id}
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	flow, err := h.flowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	Success(w, FlowFromDomain(*flow))
}

// SetFlowActive включает или выключает flow.
// PUT /api/v1/flows/{id}/active
func (h *Handler) SetFlowActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.flowRepo.SetActive(r.Context(), id, req.Enabled); err != nil {
		if HandleRepoError(w, h.logger, err, "flow not found") {
			return
		}
	}

	flow, err := h.flowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	Success(w, FlowFromDomain(*flow))
}

// GetFlowVersion возвращает конкретную версию flow.
// GET /api/v1/flows/{id}/versions/{version}
func (h *Handler) GetFlowVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	versionNum, err := strconv.Atoi(r.PathValue("version"))
	if err != nil {
		BadRequest(w, "invalid version number")
		return
	}

	version, err := h.flowRepo.GetVersion(r.Context(), id, versionNum)
	if HandleRepoError(w, h.logger, err, "flow version not found") {
		return
	}

	Success(w, FlowVersionFromDomain(*version))
}

// GetLatestFlowVersion возвращает последнюю версию flow.
// GET /api/v1/flows/{id}/versions/latest
func (h *Handler) GetLatestFlowVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	version, err := h.flowRepo.LatestVersion(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "flow has no versions") {
		return
	}

	Success(w, FlowVersionFromDomain(*version))
}
