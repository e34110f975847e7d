// Package metrics exports per-run pipeline metrics to Prometheus.
//
// A run is a short-lived batch job, so metrics are not scraped from a
// listener: they are written to a node-exporter textfile and/or pushed to a
// Pushgateway once the run ends.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Registry holds the pipeline metrics on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	RowsRead         prometheus.Counter
	RowsDropped      prometheus.Counter
	ProductsUpserted prometheus.Counter
	SalesInserted    prometheus.Counter
	SalesSkipped     prometheus.Counter
	SalesRepeated    prometheus.Counter
	Runs             *prometheus.CounterVec
	PhaseDuration    *prometheus.HistogramVec
	LastSuccess      prometheus.Gauge
}

type settings struct {
	namespace string
	buckets   []float64
}

// Option configures a Registry.
type Option func(*settings)

// WithNamespace sets the metric name prefix. Default: "retail_etl".
func WithNamespace(namespace string) Option {
	return func(s *settings) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets the phase duration buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(s *settings) {
		if len(buckets) > 0 {
			s.buckets = buckets
		}
	}
}

// NewRegistry creates and registers the pipeline metrics.
func NewRegistry(opts ...Option) *Registry {
	s := settings{
		namespace: "retail_etl",
		// batch phases range from milliseconds (validate) to minutes (load)
		buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}
	for _, opt := range opts {
		opt(&s)
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: s.namespace, Name: name, Help: help})
	}

	r := &Registry{
		reg:              prometheus.NewRegistry(),
		RowsRead:         counter("rows_read_total", "Source rows read."),
		RowsDropped:      counter("rows_dropped_total", "Rows dropped for an unparseable order date."),
		ProductsUpserted: counter("products_upserted_total", "Product rows sent to the store."),
		SalesInserted:    counter("sales_inserted_total", "Sale rows inserted."),
		SalesSkipped:     counter("sales_skipped_total", "Sale rows already present and skipped."),
		SalesRepeated:    counter("sales_repeated_total", "Rows repeating an order/product pair within the batch."),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase.",
			Buckets:   s.buckets,
		}, []string{"phase"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      "last_success_unixtime",
			Help:      "Unix time of the last successful run.",
		}),
	}

	r.reg.MustRegister(
		r.RowsRead, r.RowsDropped, r.ProductsUpserted, r.SalesInserted, r.SalesSkipped,
		r.SalesRepeated, r.Runs, r.PhaseDuration, r.LastSuccess,
	)
	return r
}

// ObservePhase records how long a phase took.
func (r *Registry) ObservePhase(phase string, d time.Duration) {
	r.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RunFinished counts a run and, on success, stamps the last success time.
func (r *Registry) RunFinished(err error, at time.Time) {
	if err != nil {
		r.Runs.WithLabelValues(StatusFailure).Inc()
		return
	}
	r.Runs.WithLabelValues(StatusSuccess).Inc()
	r.LastSuccess.Set(float64(at.Unix()))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile writes all metrics in the text exposition format for the
// node-exporter textfile collector. The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Push sends all metrics to a Pushgateway, replacing the job's group.
func (r *Registry) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
