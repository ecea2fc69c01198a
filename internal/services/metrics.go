package services

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values for workflowTransitions.
const (
	outcomeSuccess  = "success"
	outcomeCached   = "cached"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

var (
	// workflowTransitions counts workflow operations by outcome.
	workflowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songcard_workflow_transitions_total",
			Help: "Workflow operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// rateLimited counts requests rejected by the per-IP action limiter.
	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songcard_rate_limited_total",
			Help: "Requests rejected by the per-IP action limiter.",
		},
		[]string{"action"},
	)

	// emailsSent counts email send attempts by result.
	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songcard_emails_total",
			Help: "Card email send attempts by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(workflowTransitions, rateLimited, emailsSent)
}

func observe(operation, outcome string) {
	workflowTransitions.WithLabelValues(operation, outcome).Inc()
}
