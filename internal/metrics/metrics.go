// Package metrics exposes Prometheus metrics for HTTP traffic and editing
// activity. A Registry implements core.Observer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/UDIEditor/internal/core"
)

// Registry holds all Prometheus metrics for the editor.
type Registry struct {
	reg *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Business Metrics
	Records         *prometheus.GaugeVec
	IngestsTotal    *prometheus.CounterVec
	IngestDuration  prometheus.Histogram
	IngestedRecords prometheus.Counter
	BulkEditRecords *prometheus.CounterVec
	EditsTotal      *prometheus.CounterVec
}

var _ core.Observer = (*Registry)(nil)

// New creates a registry with every metric prefixed by namespace.
// Go runtime and process collectors are included.
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed by route, method, and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distribution in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),

		Records: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records",
				Help:      "Records in the working set by validation status",
			},
			[]string{"status"},
		),
		IngestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingests_total",
				Help:      "Ingest requests by outcome",
			},
			[]string{"phase"},
		),
		IngestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingest_duration_seconds",
				Help:      "Time from submit to completion for applied ingests",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		IngestedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingested_records_total",
				Help:      "Records loaded by completed ingests",
			},
		),
		BulkEditRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bulk_edit_records_total",
				Help:      "Records touched by bulk edits, split into updated and skipped",
			},
			[]string{"result"},
		),
		EditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cell_edits_total",
				Help:      "Cell edit transitions by action",
			},
			[]string{"action"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ObserveValidation(s core.Summary) {
	r.Records.WithLabelValues(string(core.StatusValid)).Set(float64(s.Valid))
	r.Records.WithLabelValues(string(core.StatusWarning)).Set(float64(s.Warning))
	r.Records.WithLabelValues(string(core.StatusInvalid)).Set(float64(s.Invalid))
	r.Records.WithLabelValues(string(core.StatusPending)).Set(float64(s.Pending))
}

func (r *Registry) ObserveIngest(phase core.IngestPhase, records int, d time.Duration) {
	r.IngestsTotal.WithLabelValues(string(phase)).Inc()
	if phase == core.PhaseComplete {
		r.IngestDuration.Observe(d.Seconds())
		r.IngestedRecords.Add(float64(records))
	}
}

func (r *Registry) ObserveBulkEdit(updated, skipped int) {
	r.BulkEditRecords.WithLabelValues("updated").Add(float64(updated))
	r.BulkEditRecords.WithLabelValues("skipped").Add(float64(skipped))
}

func (r *Registry) ObserveEdit(action string) {
	r.EditsTotal.WithLabelValues(action).Inc()
}
