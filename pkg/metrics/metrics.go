// Package metrics declares the Prometheus collectors of the billing service.
// Collectors register on the default registry at init; Handler exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "billing"

var WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "webhook",
	Name:      "events_total",
	Help:      "Provider webhook deliveries by event name and outcome",
}, []string{"event", "outcome"})

var SubscriptionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "subscription",
	Name:      "transitions_total",
	Help:      "Subscription status changes",
}, []string{"from", "to"})

var GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "paystack",
	Name:      "requests_total",
	Help:      "Paystack API calls by operation and outcome",
}, []string{"operation", "outcome"})

var GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "paystack",
	Name:      "request_duration_seconds",
	Help:      "Paystack API call latency per attempt",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

var ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "session",
	Name:      "active",
	Help:      "Dashboard sessions with a running access poller",
})

var LockedChecks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "session",
	Name:      "access_checks_total",
	Help:      "Access poller checks by result",
}, []string{"result"})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
