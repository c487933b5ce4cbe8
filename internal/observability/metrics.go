package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	submissionsCreated    prometheus.Counter
	decisionsRecorded     *prometheus.CounterVec
	mailDispatches        *prometheus.CounterVec
	streamClientsActive   prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		submissionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_submissions_created_total",
			Help: "Total number of developer submissions stored.",
		})

		decisionsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_decisions_recorded_total",
			Help: "Total number of evaluation decisions written, by outcome.",
		}, []string{"decision"})

		mailDispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_mail_dispatches_total",
			Help: "Total number of outbound mail attempts, by result.",
		}, []string{"status"})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_stream_clients_active",
			Help: "Number of live evaluation stream subscribers.",
		})

		prometheus.MustRegister(
			requestsTotal,
			requestLatencySeconds,
			submissionsCreated,
			decisionsRecorded,
			mailDispatches,
			streamClientsActive,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// SubmissionsCreated exposes the counter for stored submissions.
func SubmissionsCreated() prometheus.Counter {
	RegisterMetrics()
	return submissionsCreated
}

// DecisionsRecorded exposes the counter for evaluation decisions.
func DecisionsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionsRecorded
}

// MailDispatches exposes the counter for outbound mail attempts.
func MailDispatches() *prometheus.CounterVec {
	RegisterMetrics()
	return mailDispatches
}

// StreamClientsActive exposes the gauge for live stream subscribers.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}
