package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска flow.
//
// Schedule позволяет запускать flow:
// - По cron-выражению: "0 9 * * *" (каждый день в 9:00)
// - По интервалу: каждые N секунд
//
// Scheduler проверяет next_due_at и создаёт run, когда время подошло.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// FlowID — ссылка на flow, который нужно запускать.
	FlowID uuid.UUID `json:"flow_id"`

	// Name — имя расписания для удобства.
	Name string `json:"name,omitempty"`

	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Если задан CronExpr, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между запусками.
	// Используется если CronExpr не задан.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего запуска.
	// Scheduler создаёт run, когда now >= NextDueAt,
	// после чего вычисляет новое NextDueAt.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — ID последнего созданного run.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`

	// Inputs — сырые входы, передаваемые в каждый созданный run.
	Inputs map[string]string `json:"inputs,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения schedule.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron сообщает, задано ли расписание cron-выражением.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval сообщает, задано ли расписание интервалом.
func (s *Schedule) IsInterval() bool {
	return s.IntervalSec > 0
}

// RecordRun фиксирует созданный run и следующее время срабатывания.
func (s *Schedule) RecordRun(runID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastRunID = &runID
	s.NextDueAt = &nextDue
}

// Location возвращает часовой пояс расписания, по умолчанию UTC.
func (s *Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IdempotencyKey возвращает ключ идемпотентности для запуска в момент due.
func (s *Schedule) IdempotencyKey(due time.Time) string {
	return s.ID.String() + "_" + due.UTC().Format(time.RFC3339)
}
