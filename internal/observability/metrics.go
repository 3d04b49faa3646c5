package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dssat_eval"

// Metrics holds the Prometheus counters, histograms, and gauges for the evaluation service.
type Metrics struct {
	RequestsConsumed prometheus.Counter
	ReportsProduced  prometheus.Counter
	EvaluationErrors prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// File and evaluation metrics.
	FilesParsed         *prometheus.CounterVec // labels: format={output,observed,evaluate,treatments}, outcome={ok,empty,error}
	RowsRejected        *prometheus.CounterVec // labels: format
	ParseCache          *prometheus.CounterVec // labels: result={hit,miss}
	RecordsComputed     prometheus.Counter
	EvaluationDuration  prometheus.Histogram
	CodeDictionaryLoads *prometheus.CounterVec // labels: outcome={ok,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total evaluation requests read from the source topic.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_produced_total",
			Help:      "Total evaluation reports written to the sink topic.",
		}),
		EvaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Total requests that could not be evaluated.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-evaluate-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FilesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "DSSAT files parsed by format and outcome.",
		}, []string{"format", "outcome"}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Data rows dropped because their width did not match the header.",
		}, []string{"format"}),
		ParseCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_cache_total",
			Help:      "Parsed dataset cache lookups by result.",
		}, []string{"result"}),
		RecordsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_computed_total",
			Help:      "Agreement records computed across all reports.",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate a single request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CodeDictionaryLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_dictionary_loads_total",
			Help:      "DATA.CDE loads by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.RequestsConsumed,
		m.ReportsProduced,
		m.EvaluationErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.FilesParsed,
		m.RowsRejected,
		m.ParseCache,
		m.RecordsComputed,
		m.EvaluationDuration,
		m.CodeDictionaryLoads,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "requests_consumed_total"}),
		ReportsProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reports_produced_total"}),
		EvaluationErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "evaluation_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		FilesParsed:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "files_parsed_total"}, []string{"format", "outcome"}),
		RowsRejected:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "rows_rejected_total"}, []string{"format"}),
		ParseCache:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "parse_cache_total"}, []string{"result"}),
		RecordsComputed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "records_computed_total"}),
		EvaluationDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "evaluation_duration_seconds"}),
		CodeDictionaryLoads:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "code_dictionary_loads_total"}, []string{"outcome"}),
	}
}

// NewLocalMetrics creates Metrics that are not registered anywhere. The CLI
// uses them since a one-shot command has no scrape endpoint.
func NewLocalMetrics() *Metrics {
	return NewMetricsForTesting()
}
