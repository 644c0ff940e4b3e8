package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	LedgerOperations     *prometheus.CounterVec
	LedgerDuration       *prometheus.HistogramVec
	LedgerVolume         *prometheus.CounterVec
	AuditFailures        *prometheus.CounterVec
	ConcurrencyConflicts *prometheus.CounterVec
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		LedgerOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miniwallet_ledger_operations_total",
				Help: "Ledger postings by operation and result.",
			},
			[]string{"operation", "result"},
		),
		LedgerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "miniwallet_ledger_operation_duration_seconds",
				Help:    "Ledger posting duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miniwallet_ledger_volume_total",
				Help: "Posted amount by operation and currency.",
			},
			[]string{"operation", "currency"},
		),
		AuditFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miniwallet_audit_write_failures_total",
				Help: "Audit trail entries that could not be written.",
			},
			[]string{"action"},
		),
		ConcurrencyConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miniwallet_concurrency_conflicts_total",
				Help: "Optimistic concurrency conflicts by table.",
			},
			[]string{"table"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	registry.MustRegister(
		m.LedgerOperations, m.LedgerDuration, m.LedgerVolume,
		m.AuditFailures, m.ConcurrencyConflicts,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// Handler exposes registry for scraping.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLedger(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, result).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) AddVolume(operation, currency string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.LedgerVolume.WithLabelValues(operation, currency).Add(amount)
}

func (m *Metrics) AuditWriteFailed(action string) {
	if m == nil {
		return
	}
	m.AuditFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) ConflictDetected(table string) {
	if m == nil {
		return
	}
	m.ConcurrencyConflicts.WithLabelValues(table).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}
