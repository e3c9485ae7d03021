// Package telemetry — структурное логирование и метрики Prometheus.
//
// Логирование настраивается переменными окружения LOG_LEVEL
// (DEBUG/INFO/WARN/ERROR) и LOG_FORMAT (json/text). Метрики
// регистрируются через promauto и отдаются сервисами на /metrics.
package telemetry
