package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "licita",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total calls to external services (pncp, llm, n8n) by outcome.",
		},
		[]string{"target", "outcome"},
	)

	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "licita",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Latency of calls to external services.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "licita",
			Subsystem: "mcp",
			Name:      "requests_total",
			Help:      "JSON-RPC requests handled by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	riskAssessments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "licita",
			Subsystem: "risk",
			Name:      "assessments_total",
			Help:      "Risk assessments computed by resulting level.",
		},
		[]string{"level"},
	)

	alertsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "licita",
			Subsystem: "alerts",
			Name:      "published_total",
			Help:      "Watch alerts published to the realtime channel.",
		},
	)
)

func init() {
	// Safe register; ignore duplicate registration in case of multiple imports
	_ = prometheus.Register(upstreamCalls)
	_ = prometheus.Register(upstreamLatency)
	_ = prometheus.Register(rpcCalls)
	_ = prometheus.Register(riskAssessments)
	_ = prometheus.Register(alertsPublished)
}

// RecordUpstreamCall records one call to an external service.
func RecordUpstreamCall(target string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamCalls.WithLabelValues(target, outcome).Inc()
	upstreamLatency.WithLabelValues(target).Observe(duration.Seconds())
}

func RecordRPC(method, outcome string) {
	rpcCalls.WithLabelValues(method, outcome).Inc()
}

func RecordRiskAssessment(level string) {
	riskAssessments.WithLabelValues(level).Inc()
}

func RecordAlertPublished() {
	alertsPublished.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
