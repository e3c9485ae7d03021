package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/voike/voike/internal/domain"
	"github.com/voike/voike/internal/parser"
	"github.com/voike/voike/internal/vvm"
)

// Flow DTOs

// FlowResponse — ответ с flow.
type FlowResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// FlowFromDomain конвертирует domain.Flow в FlowResponse.
func FlowFromDomain(f domain.Flow) FlowResponse {
	return FlowResponse{
		ID:        f.ID,
		Name:      f.Name,
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
	}
}

// FlowVersionResponse — ответ с версией flow.
type FlowVersionResponse struct {
	FlowID    uuid.UUID `json:"flow_id"`
	Version   int       `json:"version"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// FlowVersionFromDomain конвертирует domain.FlowVersion в FlowVersionResponse.
func FlowVersionFromDomain(v domain.FlowVersion) FlowVersionResponse {
	return FlowVersionResponse{
		FlowID:    v.FlowID,
		Version:   v.Version,
		Source:    v.Source,
		CreatedAt: v.CreatedAt,
	}
}

// Parse DTOs

// ParseRequest — запрос на разбор FLOW-текста.
type ParseRequest struct {
	Source string `json:"source"`
	Strict bool   `json:"strict,omitempty"`
}

// ParseIssue — одна ошибка разбора с позицией.
type ParseIssue struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// InputSummary — объявленный вход документа.
type InputSummary struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Optional bool   `json:"optional,omitempty"`
}

// StepSummary — шаг документа и его оператор.
type StepSummary struct {
	Name string `json:"name"`
	Op   string `json:"op"`
}

// ParseResponse — отчёт о разборе. OK=false не значит ошибку HTTP:
// разбор с ошибками — валидный результат разбора.
type ParseResponse struct {
	OK       bool           `json:"ok"`
	FlowName string         `json:"flow_name,omitempty"`
	Inputs   []InputSummary `json:"inputs,omitempty"`
	Steps    []StepSummary  `json:"steps,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Errors   []ParseIssue   `json:"errors,omitempty"`
}

// ParseResponseFromResult собирает отчёт из результата разбора.
func ParseResponseFromResult(res parser.Result) ParseResponse {
	out := ParseResponse{OK: res.OK, Warnings: res.Warnings}

	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ParseIssue{Line: e.Line, Col: e.Col, Message: e.Msg})
	}

	if res.Doc != nil {
		out.FlowName = res.Doc.Name
		for _, in := range res.Doc.Inputs {
			out.Inputs = append(out.Inputs, InputSummary{
				Kind:     in.Kind,
				Name:     in.Name,
				Optional: in.Optional,
			})
		}
		for _, st := range res.Doc.Steps {
			out.Steps = append(out.Steps, StepSummary{Name: st.Name, Op: st.Op.Keyword()})
		}
	}

	return out
}

// Plan DTOs

// PlanRequest — запрос на компиляцию плана из FLOW-текста.
type PlanRequest struct {
	Source string `json:"source"`
}

// PlanResponse — ответ с планом.
type PlanResponse struct {
	ID        uuid.UUID       `json:"id"`
	FlowID    uuid.UUID       `json:"flow_id"`
	Version   int             `json:"version"`
	FlowName  string          `json:"flow_name"`
	NodeCount int             `json:"node_count"`
	EdgeCount int             `json:"edge_count"`
	TotalCost int             `json:"total_cost"`
	Graph     json.RawMessage `json:"graph,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PlanFromDomain конвертирует domain.Plan в PlanResponse.
func PlanFromDomain(p domain.Plan) PlanResponse {
	return PlanResponse{
		ID:        p.ID,
		FlowID:    p.FlowID,
		Version:   p.Version,
		FlowName:  p.FlowName,
		NodeCount: p.NodeCount,
		EdgeCount: p.EdgeCount,
		TotalCost: p.TotalCost,
		Graph:     p.Graph,
		CreatedAt: p.CreatedAt,
	}
}

// Run DTOs

// CreateRunRequest — запрос на создание run.
type CreateRunRequest struct {
	Version        *int              `json:"version,omitempty"`
	Mode           string            `json:"mode,omitempty"`
	Inputs         map[string]string `json:"inputs,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID             uuid.UUID          `json:"id"`
	FlowID         uuid.UUID          `json:"flow_id"`
	Version        int                `json:"version"`
	Mode           string             `json:"mode"`
	Status         string             `json:"status"`
	Inputs         map[string]string  `json:"inputs,omitempty"`
	Outputs        map[string]any     `json:"outputs,omitempty"`
	Metrics        *domain.RunMetrics `json:"metrics,omitempty"`
	StartedAt      *time.Time         `json:"started_at,omitempty"`
	FinishedAt     *time.Time         `json:"finished_at,omitempty"`
	Error          string             `json:"error,omitempty"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:             r.ID,
		FlowID:         r.FlowID,
		Version:        r.Version,
		Mode:           string(r.Mode),
		Status:         string(r.Status),
		Inputs:         r.Inputs,
		Outputs:        r.Outputs,
		Metrics:        r.Metrics,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Error:          r.Error,
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      r.CreatedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string            `json:"name"`
	CronExpr    string            `json:"cron_expr,omitempty"`
	IntervalSec int               `json:"interval_sec,omitempty"`
	Timezone    string            `json:"timezone,omitempty"`
	Enabled     bool              `json:"enabled"`
	Inputs      map[string]string `json:"inputs,omitempty"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string            `json:"name,omitempty"`
	CronExpr    *string            `json:"cron_expr,omitempty"`
	IntervalSec *int               `json:"interval_sec,omitempty"`
	Timezone    *string            `json:"timezone,omitempty"`
	Inputs      *map[string]string `json:"inputs,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID          uuid.UUID         `json:"id"`
	FlowID      uuid.UUID         `json:"flow_id"`
	Name        string            `json:"name"`
	CronExpr    string            `json:"cron_expr,omitempty"`
	IntervalSec int               `json:"interval_sec,omitempty"`
	Timezone    string            `json:"timezone"`
	Enabled     bool              `json:"enabled"`
	NextDueAt   *time.Time        `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time        `json:"last_run_at,omitempty"`
	LastRunID   *uuid.UUID        `json:"last_run_id,omitempty"`
	Inputs      map[string]string `json:"inputs,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:          s.ID,
		FlowID:      s.FlowID,
		Name:        s.Name,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Enabled:     s.Enabled,
		NextDueAt:   s.NextDueAt,
		LastRunAt:   s.LastRunAt,
		LastRunID:   s.LastRunID,
		Inputs:      s.Inputs,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// VVM DTOs

// VMExecuteRequest — запрос на исполнение VVM-программы в текстовой
// мнемонической форме.
type VMExecuteRequest struct {
	Program  string `json:"program"`
	MaxSteps int    `json:"max_steps,omitempty"`
}

// VMExecuteResponse — ответ с итоговым файлом регистров.
type VMExecuteResponse struct {
	Halted    bool           `json:"halted"`
	Registers map[string]any `json:"registers"`
}

// registerValue распаковывает значение регистра в нативный JSON-тип.
func registerValue(v vvm.Value) any {
	switch v.Kind {
	case vvm.KindFloat:
		return v.Float
	case vvm.KindBool:
		return v.Bool
	default:
		return v.Int
	}
}
