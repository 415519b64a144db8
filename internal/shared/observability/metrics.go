package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esmigrate_stage_seconds",
		Help:    "Time spent in one conversion stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	FileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esmigrate_file_seconds",
		Help:    "Time spent converting a single file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"style"})

	FilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmigrate_files_scanned_total",
		Help: "Total number of source files read by the scanner.",
	})

	FilesConverted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esmigrate_files_converted_total",
		Help: "Total number of files rewritten to ES6 modules.",
	}, []string{"style"})

	FilesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmigrate_files_skipped_total",
		Help: "Total number of provide-style files left untouched because nothing was exportable.",
	})

	ImportsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmigrate_imports_emitted_total",
		Help: "Total number of import statements written.",
	})

	ExportsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmigrate_exports_emitted_total",
		Help: "Total number of exported names written.",
	})

	ClassesConverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmigrate_classes_converted_total",
		Help: "Total number of constructor functions rewritten as classes.",
	})

	MergedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmigrate_merged_files_total",
		Help: "Total number of files folded into a merge target by the cycle breaker.",
	})

	MissingMergeMembers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esmigrate_merge_members_missing_total",
		Help: "Total number of merge group members that no longer exist.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "esmigrate_graph_files",
		Help: "Number of files in the require graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "esmigrate_graph_edges",
		Help: "Number of file-to-file edges in the require graph.",
	})

	ResidualCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "esmigrate_residual_cycles",
		Help: "Number of require cycles left after merging.",
	})
)

// WriteMetricsFile dumps the default registry in the Prometheus text format to path.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
