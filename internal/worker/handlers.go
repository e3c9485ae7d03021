package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/voike/voike/internal/domain"
	"github.com/voike/voike/internal/mq"
	"github.com/voike/voike/internal/pipeline"
	"github.com/voike/voike/internal/repo"
	"github.com/voike/voike/internal/telemetry"
)

// handleRunPending обрабатывает событие run.pending из очереди.
func (w *Worker) handleRunPending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunPendingPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse run.pending payload", "error", err)
		return err
	}

	w.logger.Debug("received run.pending event", "run_id", payload.RunID)

	if err := w.processRun(ctx, payload.RunID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunNotPending) {
			w.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		}
		w.logger.Error("failed to process run", "run_id", payload.RunID, "error", err)
		return err
	}

	return nil
}

// processRun загружает run из БД, компилирует версию flow и выполняет
// план до завершения. Ошибка любого шага фатальна: выходы не
// сохраняются, run получает статус FAILED с текстом ошибки.
func (w *Worker) processRun(ctx context.Context, runID uuid.UUID) error {
	run, err := w.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status != domain.RunStatusPending {
		return ErrRunNotPending
	}

	version, err := w.flowRepo.GetVersion(ctx, run.FlowID, run.Version)
	if err != nil {
		return fmt.Errorf("get flow version: %w", err)
	}

	run.MarkRunning()
	if err := w.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to running: %w", err)
	}

	logger := telemetry.WithFlowID(telemetry.WithRunID(w.logger, run.ID.String()), run.FlowID.String())
	logger.Info("run started",
		"flow_id", run.FlowID,
		"version", run.Version,
		"mode", run.Mode,
	)

	res, execErr := pipeline.Execute(ctx, version.Source, run.Inputs, w.collab)

	if execErr != nil {
		run.MarkFailed(execErr.Error())

		logger.Warn("run failed", "error", execErr)
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

		logger.Info("run succeeded",
			"nodes_executed", res.Metrics.NodesExecuted,
			"elapsed_ms", res.Metrics.ElapsedMs,
		)
	}

	telemetry.RunsTotal.WithLabelValues(string(run.Status), string(run.Mode)).Inc()
	telemetry.RunDuration.Observe(run.Duration().Seconds())

	if err := w.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to %s: %w", run.Status, err)
	}

	return nil
}
