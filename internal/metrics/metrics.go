// Package metrics exposes Prometheus collectors for the ARI engine and the
// HTTP transport.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

const namespace = "pms"

// Metrics holds every collector of the service. Each instance registers its
// collectors on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	clamps            *prometheus.CounterVec
	cascadeRows       *prometheus.CounterVec
	ingested          *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ari",
			Name:      "operations_total",
			Help:      "ARI operations by operation and result.",
		}, []string{"operation", "result"}),
		operationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ari",
			Name:      "operation_duration_seconds",
			Help:      "ARI operation latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"operation"}),
		clamps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ari",
			Name:      "availability_clamped_total",
			Help:      "Availability requests capped at physical capacity, by room type.",
		}, []string{"room_type"}),
		cascadeRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ari",
			Name:      "cascade_rows_total",
			Help:      "Derived rate rows written by parent price cascades, by rate plan.",
		}, []string{"rate_plan"}),
		ingested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "events_total",
			Help:      "Ingested channel events by resulting status.",
		}, []string{"status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveOperation records the outcome and latency of an ARI operation.
func (m *Metrics) ObserveOperation(operation string, err error, took time.Duration) {
	m.operations.WithLabelValues(operation, result(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// CountClamp counts one capped availability request.
func (m *Metrics) CountClamp(roomTypeCode string) {
	m.clamps.WithLabelValues(roomTypeCode).Inc()
}

// CountCascade adds the rows written by one child plan cascade.
func (m *Metrics) CountCascade(ratePlanCode string, rows int64) {
	m.cascadeRows.WithLabelValues(ratePlanCode).Add(float64(rows))
}

// CountIngest counts one channel event by status.
func (m *Metrics) CountIngest(status domain.AriEventStatus) {
	m.ingested.WithLabelValues(status.String()).Inc()
}

// ObserveHTTP records one served request under its route pattern.
func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, domain.ErrTxAborted):
		return "aborted"
	default:
		return "error"
	}
}
