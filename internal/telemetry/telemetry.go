package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide counters exposed on /metrics. Registration happens at import
// time via promauto; the server only needs to mount the handler.
var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizagent_runs_started_total",
		Help: "Number of agent runs accepted for execution",
	})

	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizagent_runs_completed_total",
		Help: "Number of agent runs finished, by terminal status",
	}, []string{"status"})

	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizagent_tool_calls_total",
		Help: "Number of tool invocations, by tool name",
	}, []string{"tool"})
)
