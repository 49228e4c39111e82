package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "traffic_weather_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge
	RunFailures     *prometheus.CounterVec // labels: stage={retrieve,shape,persist,enrich,sink}

	// Per-dataset metrics.
	BytesRetrieved *prometheus.CounterVec   // labels: dataset
	RecordsShaped  *prometheus.GaugeVec     // labels: dataset
	RecordsStored  *prometheus.CounterVec   // labels: dataset
	StageDuration  *prometheus.HistogramVec // labels: dataset, stage

	// Delivery of the enriched table.
	SinkDeliveries *prometheus.CounterVec // labels: sink, outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete retrieve-shape-persist run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that persisted every dataset.",
		}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Failed runs by the stage that failed.",
		}, []string{"stage"}),
		BytesRetrieved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_retrieved_total",
			Help:      "Decompressed bytes downloaded per dataset.",
		}, []string{"dataset"}),
		RecordsShaped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_shaped",
			Help:      "Monthly rows produced by the last shape of each dataset.",
		}, []string{"dataset"}),
		RecordsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_stored_total",
			Help:      "Rows inserted into the store per dataset.",
		}, []string{"dataset"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage per dataset.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"dataset", "stage"}),
		SinkDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_deliveries_total",
			Help:      "Enriched table deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRunning,
		m.RunDuration,
		m.LastSuccess,
		m.RunFailures,
		m.BytesRetrieved,
		m.RecordsShaped,
		m.RecordsStored,
		m.StageDuration,
		m.SinkDeliveries,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWithRegistry creates metrics registered on reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
