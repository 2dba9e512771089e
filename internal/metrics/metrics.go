// Package metrics exposes Prometheus instrumentation for the API and the alert pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics methods are safe on a nil receiver so callers can run uninstrumented.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	alertsLogged      *prometheus.CounterVec
	alertsSuppressed  *prometheus.CounterVec
	evaluations       prometheus.Counter
	evaluationErrors  prometheus.Counter
	wsClients         prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		alertsLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incubator_alerts_logged_total",
			Help: "Alerts written to the alert log by code.",
		}, []string{"code"}),
		alertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incubator_alerts_suppressed_total",
			Help: "Breaches not logged because a recent alert exists, by where it was found.",
		}, []string{"source"}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "incubator_evaluations_total",
			Help: "Device state evaluations performed.",
		}),
		evaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "incubator_evaluation_errors_total",
			Help: "Evaluations that failed to persist an alert.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "incubator_ws_clients",
			Help: "Currently connected live view sockets.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.alertsLogged,
		m.alertsSuppressed,
		m.evaluations,
		m.evaluationErrors,
		m.wsClients,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records count and latency per matched gin route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) AlertLogged(code string) {
	if m != nil {
		m.alertsLogged.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) AlertSuppressed(source string) {
	if m != nil {
		m.alertsSuppressed.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) Evaluated() {
	if m != nil {
		m.evaluations.Inc()
	}
}

func (m *Metrics) EvaluationFailed() {
	if m != nil {
		m.evaluationErrors.Inc()
	}
}

func (m *Metrics) WSConnected() {
	if m != nil {
		m.wsClients.Inc()
	}
}

func (m *Metrics) WSDisconnected() {
	if m != nil {
		m.wsClients.Dec()
	}
}
