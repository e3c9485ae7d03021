package api

import (
	"log/slog"

	"github.com/voike/voike/internal/engine"
	"github.com/voike/voike/internal/mq"
	"github.com/voike/voike/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	flowRepo     *repo.FlowRepo
	planRepo     *repo.PlanRepo
	runRepo      *repo.RunRepo
	scheduleRepo *repo.ScheduleRepo
	publisher    *mq.Publisher
	collab       engine.Collaborators
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	FlowRepo     *repo.FlowRepo
	PlanRepo     *repo.PlanRepo
	RunRepo      *repo.RunRepo
	ScheduleRepo *repo.ScheduleRepo
	Publisher    *mq.Publisher
	Collab       engine.Collaborators
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		flowRepo:     cfg.FlowRepo,
		planRepo:     cfg.PlanRepo,
		runRepo:      cfg.RunRepo,
		scheduleRepo: cfg.ScheduleRepo,
		publisher:    cfg.Publisher,
		collab:       cfg.Collab,
		logger:       cfg.Logger,
	}
}
