package apisvc

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments outbound calls. A nil *Metrics records nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	retries      prometheus.Counter
	authFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "veritas",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend calls by method and status code (0 = no response).",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "veritas",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "veritas",
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Calls replayed after a transient backend failure.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "veritas",
			Subsystem: "api",
			Name:      "auth_failures_total",
			Help:      "401/403 answers from the backend.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.retries, m.authFailures)
	}
	return m
}

func (m *Metrics) observe(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) retry() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) authFailure() {
	if m != nil {
		m.authFailures.Inc()
	}
}
