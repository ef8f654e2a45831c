package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AccessDecisions counts authorization evaluations by kind
	// (permission|role|any_role) and outcome (allowed|denied|error).
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_access_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"kind", "requirement", "result"},
	)

	// RoleGrants counts assignment mutations (grant|revoke).
	RoleGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_role_grants_total",
			Help: "Total number of role grants and revocations",
		},
		[]string{"operation"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authcore_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
