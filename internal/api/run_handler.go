package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/voike/voike/internal/domain"
	"github.com/voike/voike/internal/pipeline"
	"github.com/voike/voike/internal/repo"
	"github.com/voike/voike/internal/telemetry"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?flow_id=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{Limit: 50}

	if flowIDStr := r.URL.Query().Get("flow_id"); flowIDStr != "" {
		flowID, err := uuid.Parse(flowIDStr)
		if err != nil {
			BadRequest(w, "invalid flow_id")
			return
		}
		filter.FlowID = &flowID
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.RunStatus(status)
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

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun создаёт run для flow. Режим sync выполняется прямо в
// запросе; async (режим по умолчанию) ставится в очередь. Режим auto
// трактуется как sync: планы выполняются однопоточно и до завершения,
// откладывать нечего.
// POST /api/v1/flows/{id}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	mode := domain.RunModeAsync
	switch req.Mode {
	case "", "async":
	case "sync", "auto":
		mode = domain.RunModeSync
	default:
		BadRequest(w, "mode must be sync, async or auto")
		return
	}

	ctx := r.Context()

	flow, err := h.flowRepo.GetByID(ctx, flowID)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}
	if !flow.IsActive {
		InvalidState(w, "flow is not active")
		return
	}

	var version *domain.FlowVersion
	if req.Version != nil {
		version, err = h.flowRepo.GetVersion(ctx, flowID, *req.Version)
		if HandleRepoError(w, h.logger, err, "flow version not found") {
			return
		}
	} else {
		version, err = h.flowRepo.LatestVersion(ctx, flowID)
		if HandleRepoError(w, h.logger, err, "flow has no versions") {
			return
		}
	}

	if req.IdempotencyKey != "" {
		existing, err := h.runRepo.GetByIdempotencyKey(ctx, flowID, req.IdempotencyKey)
		if err == nil && existing != nil {
			Success(w, RunFromDomain(*existing))
			return
		}
	}

	run := &domain.Run{
		ID:             uuid.New(),
		FlowID:         flow.ID,
		Version:        version.Version,
		Mode:           mode,
		Status:         domain.RunStatusPending,
		Inputs:         req.Inputs,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := h.runRepo.Create(ctx, run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	if mode == domain.RunModeSync {
		h.executeRun(w, r, run, version.Source)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishRunPending(ctx, run.ID); err != nil {
			h.logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
		}
	}

	Accepted(w, RunFromDomain(*run))
}

// executeRun выполняет run синхронно и сохраняет итог.
func (h *Handler) executeRun(w http.ResponseWriter, r *http.Request, run *domain.Run, source string) {
	ctx := r.Context()
	run.MarkRunning()

	res, err := pipeline.Execute(ctx, source, run.Inputs, h.collab)
	if err != nil {
		run.MarkFailed(err.Error())
	} else {
		outputs := make(map[string]any, len(res.Outputs))
		for name, v := range res.Outputs {
			outputs[name] = v.Any()
		}
		run.MarkSucceeded(outputs, domain.RunMetrics{
			NodesExecuted: res.Metrics.NodesExecuted,
			ElapsedMs:     res.Metrics.ElapsedMs,
		})
		telemetry.NodesExecuted.Add(float64(res.Metrics.NodesExecuted))
	}

	telemetry.RunsTotal.WithLabelValues(string(run.Status), string(run.Mode)).Inc()
	telemetry.RunDuration.Observe(run.Duration().Seconds())

	if err := h.runRepo.Update(ctx, run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, RunFromDomain(*run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// CancelRun отменяет run.
// POST /api/v1/runs/{id}/cancel
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	if run.IsFinished() {
		InvalidState(w, "run is already finished")
		return
	}

	run.MarkCancelled()

	if err := h.runRepo.Update(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, RunFromDomain(*run))
}
