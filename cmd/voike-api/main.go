// Voike API — HTTP API сервиса: разбор и планирование FLOW-документов,
// запуски, расписания и исполнение VVM-программ.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voike/voike/internal/api"
	"github.com/voike/voike/internal/collab"
	"github.com/voike/voike/internal/mq"
	"github.com/voike/voike/internal/repo"
	"github.com/voike/voike/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voike_api_http_requests_total",
		Help: "Total HTTP requests handled by voike_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting voike-api")

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	flowRepo := repo.NewFlowRepo(pool)
	planRepo := repo.NewPlanRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ — опционально: без него асинхронные runs
	// подхватит worker через polling
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 10*time.Second)
	mqConn, err := mq.Connect(dialCtx, mqURL, logger)
	cancelDial()
	if err != nil {
		logger.Warn("RabbitMQ not available, async runs rely on worker polling", "error", err)
	} else {
		defer mqConn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		cancel()

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Коллабораторы для синхронных запусков
	clients := collab.NewHTTPClients(logger)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		FlowRepo:     flowRepo,
		PlanRepo:     planRepo,
		RunRepo:      runRepo,
		ScheduleRepo: scheduleRepo,
		Publisher:    publisher,
		Collab:       clients.Collaborators(),
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
