package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PolicyDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecole_policy_decisions_total",
		Help: "Authorization decisions by resource, action and outcome.",
	}, []string{"resource", "action", "decision"})

	TokenFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecole_token_failures_total",
		Help: "Rejected session tokens by reason.",
	}, []string{"reason"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecole_http_requests_total",
		Help: "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})
)
