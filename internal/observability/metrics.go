// Package observability exposes the gateway's Prometheus metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

const namespace = "chatgate"

var (
	// chatRequests counts chat requests by transport and HTTP status.
	// Labels: transport (http, ws), status
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "requests_total",
		Help:      "Chat requests by transport and status",
	}, []string{"transport", "status"})

	// scopeDecisions counts classifier verdicts.
	// Labels: stage (heuristic, context, model, fail_open), in_scope
	scopeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scope",
		Name:      "decisions_total",
		Help:      "Scope decisions by stage and verdict",
	}, []string{"stage", "in_scope"})

	// runOutcomes counts finished runs.
	// Labels: outcome (completed, failed, cancelled, expired, incomplete, requires_action, timeout, error)
	runOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "run",
		Name:      "outcomes_total",
		Help:      "Assistant runs by outcome",
	}, []string{"outcome"})

	// runDuration measures the wall time from the first poll to terminal state.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "run",
		Name:      "duration_seconds",
		Help:      "Time spent waiting for assistant runs",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
	})

	// wsConnections is the number of open WebSocket chat connections.
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Open WebSocket chat connections",
	})

	// fallbacks counts answers replaced with the fallback message.
	fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolve",
		Name:      "fallbacks_total",
		Help:      "Answers replaced with the fallback contact message",
	})
)

// RecordChatRequest counts one chat request.
func RecordChatRequest(transport string, status int) {
	chatRequests.WithLabelValues(transport, strconv.Itoa(status)).Inc()
}

// RecordScopeDecision counts one classifier verdict.
func RecordScopeDecision(d domain.ScopeDecision) {
	scopeDecisions.WithLabelValues(string(d.Stage), strconv.FormatBool(d.InScope)).Inc()
}

// RecordRunOutcome counts one finished run and observes how long it took.
func RecordRunOutcome(outcome string, elapsed time.Duration) {
	runOutcomes.WithLabelValues(outcome).Inc()
	runDuration.Observe(elapsed.Seconds())
}

// RecordFallback counts one fallback substitution.
func RecordFallback() {
	fallbacks.Inc()
}

// SetWSConnections reports the number of open WebSocket connections.
func SetWSConnections(n int) {
	wsConnections.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
