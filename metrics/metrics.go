// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salonbook_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salonbook_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ClientsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salonbook_clients_created_total",
		Help: "Clients created through the display id allocation transaction.",
	})

	TxRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salonbook_tx_retries_total",
		Help: "Store transactions retried after a conflicting commit.",
	}, []string{"op"})

	VisitMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salonbook_visit_mutations_total",
		Help: "Visit array rewrites by kind.",
	}, []string{"kind"})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salonbook_reminders_total",
		Help: "Appointment reminders by channel and status.",
	}, []string{"channel", "status"})
)
