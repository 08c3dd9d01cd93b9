// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stemsi/rollbook/internal/roster"
)

const namespace = "rollbook"

// Metrics holds the registry and every collector registered on it.
type Metrics struct {
	Registry *prometheus.Registry

	storeRequests     *prometheus.CounterVec
	storeDuration     *prometheus.HistogramVec
	rosterTransitions *prometheus.CounterVec
	rosterStudents    prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates a registry with process and Go runtime collectors plus the
// service's own.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		storeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_requests_total",
			Help:      "Requests sent to the remote document store.",
		}, []string{"method", "collection", "code"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_request_duration_seconds",
			Help:      "Latency of remote document store requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "collection"}),
		rosterTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_transitions_total",
			Help:      "Roster intent transitions by action and phase.",
		}, []string{"action", "phase"}),
		rosterStudents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_students",
			Help:      "Students currently held in the roster cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests served.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.storeRequests,
		m.storeDuration,
		m.rosterTransitions,
		m.rosterStudents,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveStore records one document store request. Status 0 means the
// request failed before a response.
func (m *Metrics) ObserveStore(method, collection string, status int, d time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.storeRequests.WithLabelValues(method, collection, code).Inc()
	m.storeDuration.WithLabelValues(method, collection).Observe(d.Seconds())
}

// ObserveRoster counts a roster transition and tracks the cache size.
func (m *Metrics) ObserveRoster(a roster.Action, s roster.State) {
	m.rosterTransitions.WithLabelValues(string(a.Type), a.Phase.String()).Inc()
	m.rosterStudents.Set(float64(len(s.Students)))
}

// Middleware records every request by its route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
