package telemetry

import (
	"log/slog"
	"os"
)

// parseLevel разбирает LOG_LEVEL. Неизвестное значение — INFO.
func parseLevel(s string) slog.Level {
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger настраивает slog и делает его логгером по умолчанию.
//
// LOG_LEVEL: DEBUG | INFO | WARN | ERROR (по умолчанию INFO).
// LOG_FORMAT: "text" — читаемый вывод для разработки,
// иначе JSON. На уровне DEBUG добавляется источник записи.
func SetupLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var h slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// WithRunID возвращает логгер с полем run_id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// WithFlowID возвращает логгер с полем flow_id.
func WithFlowID(logger *slog.Logger, flowID string) *slog.Logger {
	return logger.With("flow_id", flowID)
}
