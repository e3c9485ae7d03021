// Voike Worker — выполняет асинхронные запуски FLOW-документов.
//
// Worker:
//   - Получает события run.pending из RabbitMQ
//   - Компилирует исходный текст версии flow в план
//   - Выполняет план до завершения и сохраняет итог
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voike/voike/internal/collab"
	"github.com/voike/voike/internal/mq"
	"github.com/voike/voike/internal/repo"
	"github.com/voike/voike/internal/telemetry"
	"github.com/voike/voike/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting voike-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	runRepo := repo.NewRunRepo(pool)
	flowRepo := repo.NewFlowRepo(pool)

	// RabbitMQ
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, 10*time.Second)
	mqConn, err = mq.Connect(dialCtx, mqURL, logger)
	cancelDial()
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
	}

	// Коллабораторы внешних операторов
	clients := collab.NewHTTPClients(logger)

	// Создаём worker
	w := worker.New(worker.Config{
		RunRepo:  runRepo,
		FlowRepo: flowRepo,
		Conn:     mqConn,
		Collab:   clients.Collaborators(),
		Logger:   logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker
	w.Stop()
	logger.Info("voike-worker stopped")
}
