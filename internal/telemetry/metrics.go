package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики запусков FLOW.
var (
	// RunsTotal — запуски по итоговому статусу (succeeded/failed).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voike_runs_total",
		Help: "Completed FLOW runs by outcome.",
	}, []string{"status", "mode"})

	// RunDuration — длительность запуска.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voike_run_duration_seconds",
		Help:    "FLOW run duration.",
		Buckets: prometheus.DefBuckets,
	})

	// NodesExecuted — выполненные узлы плана.
	NodesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voike_plan_nodes_executed_total",
		Help: "Plan nodes executed across all runs.",
	})

	// PlansCompiled — скомпилированные планы.
	PlansCompiled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voike_plans_compiled_total",
		Help: "Plans compiled from FLOW documents.",
	})
)

// Метрики байткод-машины.
var (
	// VMPrograms — выполненные программы по исходу (ok/load_error/runtime_error).
	VMPrograms = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voike_vvm_programs_total",
		Help: "VVM program executions by outcome.",
	}, []string{"outcome"})
)
