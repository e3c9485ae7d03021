package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voike/voike/internal/domain"
)

// FlowRepo — репозиторий flows и flow_versions.
type FlowRepo struct {
	pool *pgxpool.Pool
}

// NewFlowRepo создаёт новый FlowRepo.
func NewFlowRepo(pool *pgxpool.Pool) *FlowRepo {
	return &FlowRepo{pool: pool}
}

// Create создаёт новый flow.
func (r *FlowRepo) Create(ctx context.Context, flow *domain.Flow) error {
	query := `
		INSERT INTO flows (id, name, is_active, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		flow.ID,
		flow.Name,
		flow.IsActive,
		flow.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}
	return nil
}

// GetByID возвращает flow по ID.
func (r *FlowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM flows
		WHERE id = $1
	`
	return r.scanFlow(r.pool.QueryRow(ctx, query, id))
}

// GetByName возвращает flow по имени.
func (r *FlowRepo) GetByName(ctx context.Context, name string) (*domain.Flow, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM flows
		WHERE name = $1
	`
	return r.scanFlow(r.pool.QueryRow(ctx, query, name))
}

// List возвращает все flows, новые первыми.
func (r *FlowRepo) List(ctx context.Context) ([]domain.Flow, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM flows
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []domain.Flow
	for rows.Next() {
		var flow domain.Flow
		if err := rows.Scan(&flow.ID, &flow.Name, &flow.IsActive, &flow.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, flow)
	}
	return flows, rows.Err()
}

// SetActive включает или выключает flow.
func (r *FlowRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.pool.Exec(ctx, `UPDATE flows SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update flow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Версии ---

// CreateVersion создаёт следующую версию flow с данным исходником.
// Номер версии назначается атомарно внутри запроса.
func (r *FlowRepo) CreateVersion(ctx context.Context, flowID uuid.UUID, source string) (*domain.FlowVersion, error) {
	query := `
		INSERT INTO flow_versions (flow_id, version, source, created_at)
		VALUES ($1,
		        COALESCE((SELECT MAX(version) FROM flow_versions WHERE flow_id = $1), 0) + 1,
		        $2, NOW())
		RETURNING flow_id, version, source, created_at
	`
	var v domain.FlowVersion
	err := r.pool.QueryRow(ctx, query, flowID, source).Scan(
		&v.FlowID,
		&v.Version,
		&v.Source,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert flow version: %w", err)
	}
	return &v, nil
}

// GetVersion возвращает конкретную версию flow.
func (r *FlowRepo) GetVersion(ctx context.Context, flowID uuid.UUID, version int) (*domain.FlowVersion, error) {
	query := `
		SELECT flow_id, version, source, created_at
		FROM flow_versions
		WHERE flow_id = $1 AND version = $2
	`
	return r.scanVersion(r.pool.QueryRow(ctx, query, flowID, version))
}

// LatestVersion возвращает последнюю версию flow.
func (r *FlowRepo) LatestVersion(ctx context.Context, flowID uuid.UUID) (*domain.FlowVersion, error) {
	query := `
		SELECT flow_id, version, source, created_at
		FROM flow_versions
		WHERE flow_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	return r.scanVersion(r.pool.QueryRow(ctx, query, flowID))
}

// --- Helpers ---

func (r *FlowRepo) scanFlow(row pgx.Row) (*domain.Flow, error) {
	var flow domain.Flow
	err := row.Scan(&flow.ID, &flow.Name, &flow.IsActive, &flow.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan flow: %w", err)
	}
	return &flow, nil
}

func (r *FlowRepo) scanVersion(row pgx.Row) (*domain.FlowVersion, error) {
	var v domain.FlowVersion
	err := row.Scan(&v.FlowID, &v.Version, &v.Source, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan flow version: %w", err)
	}
	return &v, nil
}
