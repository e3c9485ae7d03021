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

// PlanRepo — репозиторий скомпилированных планов.
type PlanRepo struct {
	pool *pgxpool.Pool
}

// NewPlanRepo создаёт новый PlanRepo.
func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

// Create сохраняет план.
func (r *PlanRepo) Create(ctx context.Context, plan *domain.Plan) error {
	query := `
		INSERT INTO plans (id, flow_id, version, flow_name, node_count, edge_count,
		                   total_cost, graph, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		plan.ID,
		plan.FlowID,
		plan.Version,
		plan.FlowName,
		plan.NodeCount,
		plan.EdgeCount,
		plan.TotalCost,
		[]byte(plan.Graph),
		plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// GetByID возвращает план по ID.
func (r *PlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	query := `
		SELECT id, flow_id, version, flow_name, node_count, edge_count,
		       total_cost, graph, created_at
		FROM plans
		WHERE id = $1
	`
	return r.scanPlan(r.pool.QueryRow(ctx, query, id))
}

// PlanFilter — параметры фильтрации планов.
type PlanFilter struct {
	FlowID *uuid.UUID
	Limit  int
	Offset int
}

// List возвращает планы, новые первыми.
func (r *PlanRepo) List(ctx context.Context, filter PlanFilter) ([]domain.Plan, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	query := `
		SELECT id, flow_id, version, flow_name, node_count, edge_count,
		       total_cost, graph, created_at
		FROM plans
		WHERE ($1::uuid IS NULL OR flow_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.FlowID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		plan, err := r.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

func (r *PlanRepo) scanPlan(row pgx.Row) (*domain.Plan, error) {
	var plan domain.Plan
	var graph []byte
	err := row.Scan(
		&plan.ID,
		&plan.FlowID,
		&plan.Version,
		&plan.FlowName,
		&plan.NodeCount,
		&plan.EdgeCount,
		&plan.TotalCost,
		&graph,
		&plan.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	plan.Graph = graph
	return &plan, nil
}
