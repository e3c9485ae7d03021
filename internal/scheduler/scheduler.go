package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/voike/voike/internal/domain"
	"github.com/voike/voike/internal/mq"
	"github.com/voike/voike/internal/repo"
)

// Scheduler — планировщик, обрабатывающий due schedules.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	runRepo      *repo.RunRepo
	flowRepo     *repo.FlowRepo
	publisher    *mq.Publisher
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	RunRepo      *repo.RunRepo
	FlowRepo     *repo.FlowRepo
	Publisher    *mq.Publisher
	Logger       *slog.Logger
	BatchSize    int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		runRepo:      cfg.RunRepo,
		flowRepo:     cfg.FlowRepo,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Дозаполняет next_due_at у включённых schedules без него
// 2. Находит due schedules (enabled=true, next_due_at <= now)
// 3. Для каждого schedule создаёт run
// 4. Обновляет next_due_at
// 5. Публикует run.pending в RabbitMQ
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	if err := s.backfillNextDue(ctx, now); err != nil {
		s.logger.Error("failed to backfill next_due_at", "error", err)
	}

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		runCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if runCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_created", created,
	)

	return nil
}

// backfillNextDue вычисляет next_due_at для включённых schedules,
// у которых оно не задано: новых или только что изменённых через API.
func (s *Scheduler) backfillNextDue(ctx context.Context, now time.Time) error {
	schedules, err := s.scheduleRepo.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled schedules: %w", err)
	}

	for i := range schedules {
		sched := &schedules[i]
		if sched.NextDueAt != nil {
			continue
		}

		nextDue, err := CalculateNextDue(sched, now)
		if err != nil {
			s.logger.Warn("schedule has no valid trigger, skipping",
				"schedule_id", sched.ID,
				"error", err,
			)
			continue
		}

		sched.NextDueAt = &nextDue
		if err := s.scheduleRepo.Update(ctx, sched); err != nil {
			s.logger.Error("failed to set next_due_at",
				"schedule_id", sched.ID,
				"error", err,
			)
		}
	}

	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если run был создан (не был дубликатом).
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// Flow должен существовать и иметь хотя бы одну версию
	version, err := s.flowRepo.LatestVersion(ctx, sched.FlowID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("flow not found for schedule, skipping",
				"schedule_id", sched.ID,
				"flow_id", sched.FlowID,
			)
			return false, nil
		}
		return false, fmt.Errorf("get latest flow version: %w", err)
	}

	// Ключ идемпотентности привязан к конкретному времени срабатывания:
	// для одного schedule и одного due создаётся ровно один run
	idempKey := sched.IdempotencyKey(*sched.NextDueAt)

	existingRun, err := s.runRepo.GetByIdempotencyKey(ctx, sched.FlowID, idempKey)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check idempotency: %w", err)
	}

	var runCreated bool
	var runID uuid.UUID

	if existingRun != nil {
		s.logger.Debug("run already exists (idempotency)",
			"schedule_id", sched.ID,
			"run_id", existingRun.ID,
			"idempotency_key", idempKey,
		)
		runID = existingRun.ID
	} else {
		run := &domain.Run{
			ID:             uuid.New(),
			FlowID:         sched.FlowID,
			Version:        version.Version,
			Mode:           domain.RunModeAsync,
			Status:         domain.RunStatusPending,
			Inputs:         sched.Inputs,
			IdempotencyKey: idempKey,
			CreatedAt:      now,
		}

		if err := s.runRepo.Create(ctx, run); err != nil {
			return false, fmt.Errorf("create run: %w", err)
		}

		s.logger.Info("created run from schedule",
			"run_id", run.ID,
			"schedule_id", sched.ID,
			"schedule_name", sched.Name,
			"flow_id", sched.FlowID,
			"version", version.Version,
		)

		runID = run.ID
		runCreated = true
	}

	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		s.logger.Error("failed to calculate next due",
			"schedule_id", sched.ID,
			"error", err,
		)
		// Schedule некорректный — лучше не трогать next_due_at
		return runCreated, nil
	}

	sched.RecordRun(runID, nextDue)
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return runCreated, fmt.Errorf("update schedule: %w", err)
	}

	if s.publisher != nil && runCreated {
		if err := s.publisher.PublishRunPending(ctx, runID); err != nil {
			// Не фатальная ошибка — run уже создан в БД,
			// worker подхватит его через polling
			s.logger.Warn("failed to publish run.pending",
				"run_id", runID,
				"error", err,
			)
		}
	}

	return runCreated, nil
}
