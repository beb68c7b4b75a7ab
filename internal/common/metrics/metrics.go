// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	WorkflowExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_workflow_executions_total",
			Help: "Copilot workflow executions by query type and outcome",
		},
		[]string{"query_type", "outcome"},
	)

	WorkflowNodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copilot_node_duration_seconds",
			Help:    "Duration of a single workflow node",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
		[]string{"node"},
	)

	WorkflowNodeSoftErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_node_soft_errors_total",
			Help: "Node-local failures recorded in workflow state",
		},
		[]string{"node"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_llm_requests_total",
			Help: "Completion and embedding requests by provider and status",
		},
		[]string{"provider", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_cache_lookups_total",
			Help: "Redis cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_alerts_sent_total",
			Help: "Maintenance alerts delivered by channel and status",
		},
		[]string{"channel", "status"},
	)
)
