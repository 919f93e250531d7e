package build

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Zer0-/polymer-bricks/internal/resolve"
)

// Metrics holds the Prometheus collectors of a builder.
type Metrics struct {
	registry *prometheus.Registry

	componentsTotal *prometheus.CounterVec
	excludedTotal   prometheus.Counter
	buildDuration   prometheus.Histogram
	filesWritten    *prometheus.CounterVec
}

// NewMetrics registers the build collectors with registry. When cache is
// set its hit count is exported as bricks_parse_cache_hits_total.
func NewMetrics(registry *prometheus.Registry, cache *resolve.ParseCache) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,

		componentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bricks",
			Name:      "components_total",
			Help:      "Components recorded in dependency maps, by kind",
		}, []string{"kind"}),

		excludedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bricks",
			Name:      "excluded_roots_total",
			Help:      "Root components excluded because their subtree failed to resolve",
		}),

		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bricks",
			Name:      "build_duration_seconds",
			Help:      "Build duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		filesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bricks",
			Name:      "files_written_total",
			Help:      "Materialized files by action",
		}, []string{"action"}),
	}

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "bricks",
		Name:      "parse_cache_hits_total",
		Help:      "Documents whose references were served from the parse cache",
	}, func() float64 {
		if cache == nil {
			return 0
		}
		return float64(cache.Hits())
	})

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) fileWritten(action Action) {
	m.filesWritten.WithLabelValues(string(action)).Inc()
}
