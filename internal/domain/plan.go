package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Plan — скомпилированный план версии flow.
//
// План — снимок результата планировщика: сам граф в JSON плюс сводные
// показатели для списков и мониторинга. План неизменяем: новая версия
// flow — новый план.
type Plan struct {
	// ID — уникальный идентификатор плана.
	ID uuid.UUID `json:"id"`

	// FlowID — ссылка на flow.
	FlowID uuid.UUID `json:"flow_id"`

	// Version — версия flow, из которой собран план.
	Version int `json:"version"`

	// FlowName — имя flow (дублируется для списков).
	FlowName string `json:"flow_name"`

	// NodeCount — число узлов графа (равно числу шагов документа).
	NodeCount int `json:"node_count"`

	// EdgeCount — число рёбер (разрешённых зависимостей).
	EdgeCount int `json:"edge_count"`

	// TotalCost — суммарная оценка стоимости плана.
	TotalCost int `json:"total_cost"`

	// Graph — граф плана, сериализованный в JSON.
	Graph json.RawMessage `json:"graph"`

	// CreatedAt — время компиляции плана.
	CreatedAt time.Time `json:"created_at"`
}
