// AngelaMos | 2026
// metrics.go

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estate_workflow_transitions_total",
			Help: "Moderation transitions applied, by entity and transition",
		},
		[]string{"entity", "transition"},
	)

	mediaOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estate_media_operations_total",
			Help: "Media store operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)

	rateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estate_rate_limit_decisions_total",
			Help: "Rate limit decisions by policy, backend and result",
		},
		[]string{"policy", "backend", "result"},
	)
)

func RecordTransition(entity, transition string) {
	workflowTransitions.WithLabelValues(entity, transition).Inc()
}

func RecordMediaOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mediaOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordRateLimit counts one limiter decision. backend is "redis" or
// "local" when Redis was unreachable.
func RecordRateLimit(policy, backend string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "limited"
	}
	rateLimitDecisions.WithLabelValues(policy, backend, result).Inc()
}
