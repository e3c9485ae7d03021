package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunMetrics — метрики завершённого запуска.
type RunMetrics struct {
	// NodesExecuted — число выполненных узлов плана.
	NodesExecuted int `json:"nodesExecuted"`

	// ElapsedMs — длительность запуска в миллисекундах.
	ElapsedMs int64 `json:"elapsedMs"`
}

// Run — экземпляр выполнения версии flow.
//
// Run создаётся когда:
// - Пользователь выполняет flow через API/CLI (sync или async)
// - Scheduler создаёт run по расписанию
//
// Выходы появляются только у успешно завершённого run: упавший run
// не несёт частичных результатов.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// FlowID — ссылка на выполняемый flow.
	FlowID uuid.UUID `json:"flow_id"`

	// Version — версия flow, которая выполняется.
	Version int `json:"version"`

	// Mode — режим выполнения: sync или async.
	Mode RunMode `json:"mode"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Inputs — сырое содержимое входов, переданное при запуске.
	// Ключ — имя объявленного входа документа.
	Inputs map[string]string `json:"inputs,omitempty"`

	// Outputs — именованные выходы успешного запуска.
	Outputs map[string]any `json:"outputs,omitempty"`

	// Metrics — метрики завершённого запуска.
	Metrics *RunMetrics `json:"metrics,omitempty"`

	// StartedAt — время начала выполнения (статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения, успешного или с ошибкой.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	// Называет шаг и оператор, на которых оборвался запуск.
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности против дубликатов.
	// Для scheduled runs: "{schedule_id}_{next_due_at}".
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED с выходами и метриками.
func (r *Run) MarkSucceeded(outputs map[string]any, metrics RunMetrics) {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
	r.Outputs = outputs
	r.Metrics = &metrics
}

// MarkFailed переводит run в статус FAILED с ошибкой.
// Выходы не заполняются: частичных результатов не бывает.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
	r.Outputs = nil
	r.Metrics = nil
}

// MarkCancelled переводит run в статус CANCELLED.
func (r *Run) MarkCancelled() {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
}
