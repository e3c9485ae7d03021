package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// Middleware оборачивает http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain собирает цепочку: Chain(m1, m2)(h) = m1(m2(h)).
func Chain(mw ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		wrapped := next
		for i := len(mw) - 1; i >= 0; i-- {
			wrapped = mw[i](wrapped)
		}
		return wrapped
	}
}

// statusWriter запоминает код ответа, выставленный обработчиком.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging пишет строку лога на каждый запрос: метод, путь,
// код ответа и длительность.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.code,
				"duration_ms", time.Since(started).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Recovery перехватывает панику обработчика и отвечает 500
// вместо обрыва соединения.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("panic recovered",
						"error", v,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					InternalError(w, logger, nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
