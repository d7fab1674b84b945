package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "extcheck_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	IndexedTypes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "extcheck_indexed_types",
		Help: "Number of types held by the static type index, by kind.",
	}, []string{"kind"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "extcheck_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	DependenciesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extcheck_dependencies_found_total",
		Help: "Dependencies contributed by each signal source.",
	}, []string{"signal"})

	IntrospectionCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extcheck_introspection_cache_total",
		Help: "Introspection handle lookups, by result (hit or miss).",
	}, []string{"result"})

	SourceCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extcheck_source_cache_total",
		Help: "Source file reads served by the content cache, by result (hit or miss).",
	}, []string{"result"})

	WatcherEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extcheck_watcher_events_total",
		Help: "File system events received in watch mode.",
	})

	InspectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extcheck_inspection_failures_total",
		Help: "Per-type inspection failures, by error code.",
	}, []string{"code"})
)
