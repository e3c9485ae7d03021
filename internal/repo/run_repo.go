package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voike/voike/internal/domain"
)

// RunRepo — репозиторий запусков.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}

	query := `
		INSERT INTO runs (id, flow_id, version, mode, status, inputs,
		                  idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.FlowID,
		run.Version,
		run.Mode,
		run.Status,
		inputsJSON,
		nullString(run.IdempotencyKey),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const runColumns = `id, flow_id, version, mode, status, inputs, outputs, metrics,
       started_at, finished_at, error, idempotency_key, created_at`

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	return r.scanRun(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey возвращает run по ключу идемпотентности.
func (r *RunRepo) GetByIdempotencyKey(ctx context.Context, flowID uuid.UUID, key string) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE flow_id = $1 AND idempotency_key = $2`
	return r.scanRun(r.pool.QueryRow(ctx, query, flowID, key))
}

// RunFilter — параметры фильтрации запусков.
type RunFilter struct {
	FlowID *uuid.UUID
	Status domain.RunStatus
	Limit  int
	Offset int
}

// List возвращает запуски с фильтрацией, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE ($1::uuid IS NULL OR flow_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		filter.FlowID,
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Update обновляет изменяемые поля run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	var outputsJSON, metricsJSON []byte
	var err error
	if run.Outputs != nil {
		outputsJSON, err = json.Marshal(run.Outputs)
		if err != nil {
			return fmt.Errorf("marshal outputs: %w", err)
		}
	}
	if run.Metrics != nil {
		metricsJSON, err = json.Marshal(run.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
	}

	query := `
		UPDATE runs
		SET status = $2, outputs = $3, metrics = $4,
		    started_at = $5, finished_at = $6, error = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		outputsJSON,
		metricsJSON,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPending возвращает запуски в статусе PENDING, старые первыми.
func (r *RunRepo) ListPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRun сканирует одну строку в Run.
func (r *RunRepo) scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var inputsJSON, outputsJSON, metricsJSON []byte
	var idempotencyKey, runError *string

	err := row.Scan(
		&run.ID,
		&run.FlowID,
		&run.Version,
		&run.Mode,
		&run.Status,
		&inputsJSON,
		&outputsJSON,
		&metricsJSON,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
		&idempotencyKey,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if inputsJSON != nil {
		if err := json.Unmarshal(inputsJSON, &run.Inputs); err != nil {
			return nil, fmt.Errorf("unmarshal inputs: %w", err)
		}
	}
	if outputsJSON != nil {
		if err := json.Unmarshal(outputsJSON, &run.Outputs); err != nil {
			return nil, fmt.Errorf("unmarshal outputs: %w", err)
		}
	}
	if metricsJSON != nil {
		run.Metrics = &domain.RunMetrics{}
		if err := json.Unmarshal(metricsJSON, run.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}

	if idempotencyKey != nil {
		run.IdempotencyKey = *idempotencyKey
	}
	if runError != nil {
		run.Error = *runError
	}
	return &run, nil
}
