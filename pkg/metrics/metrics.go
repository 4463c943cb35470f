package metrics

import (
	"github.com/cuemby/resource-status/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of one resource-status invocation. Each
// instance has its own registry so nothing leaks between runs or tests.
type Metrics struct {
	Registry *prometheus.Registry

	QueriesTotal      *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	SnapshotResources *prometheus.GaugeVec
	SnapshotNodes     prometheus.Gauge
	SnapshotLoad      prometheus.Histogram
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resource_status_queries_total",
				Help: "Total number of queries by verb and result (true, false, error)",
			},
			[]string{"verb", "result"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resource_status_query_duration_seconds",
				Help:    "Query evaluation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"verb"},
		),

		SnapshotResources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "resource_status_snapshot_resources",
				Help: "Top-level resources in the queried snapshot by kind",
			},
			[]string{"kind"},
		),

		SnapshotNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "resource_status_snapshot_nodes",
				Help: "Cluster nodes in the queried snapshot",
			},
		),

		SnapshotLoad: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resource_status_snapshot_load_seconds",
				Help:    "Time taken to acquire and parse the status snapshot in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.Registry.MustRegister(m.QueriesTotal)
	m.Registry.MustRegister(m.QueryDuration)
	m.Registry.MustRegister(m.SnapshotResources)
	m.Registry.MustRegister(m.SnapshotNodes)
	m.Registry.MustRegister(m.SnapshotLoad)

	return m
}

// RecordSnapshot records the size of a loaded snapshot
func (m *Metrics) RecordSnapshot(s *types.Snapshot, timer *Timer) {
	for kind, count := range s.CountByKind() {
		m.SnapshotResources.WithLabelValues(string(kind)).Set(float64(count))
	}
	m.SnapshotNodes.Set(float64(len(s.Nodes)))
	timer.ObserveDuration(m.SnapshotLoad)
}

// RecordQuery counts one query and observes its duration
func (m *Metrics) RecordQuery(verb, result string, timer *Timer) {
	m.QueriesTotal.WithLabelValues(verb, result).Inc()
	timer.ObserveDurationVec(m.QueryDuration, verb)
}

// WriteTextfile writes all metrics in the text exposition format for the
// node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
