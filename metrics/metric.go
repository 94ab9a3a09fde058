package metrics

import (
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "syscatalog"

var (
	Registry = prometheus.NewRegistry()

	GRPCMetrics = grpcprometheus.NewServerMetrics(
		func(c *prometheus.CounterOpts) {
			c.Namespace = namespace
		},
	)

	// AppliedIndex tracks the catalog tablet's last applied raft index,
	// the metric registry collaborator of spec.md §6.
	AppliedIndex = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "applied_index",
		Help:      "Last raft log index applied to the catalog tablet.",
	})

	// InjectedFailures counts SyncWrite calls that failed due to the
	// sys_catalog_fail_during_write fault hook (spec.md §4.5).
	InjectedFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "injected_failures_total",
		Help:      "SyncWrite calls that failed due to the injected-failure fault hook.",
	})

	// WriteLatency observes SyncWrite latency from submission to the
	// completion of the single-shot latch.
	WriteLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "write_latency_seconds",
		Help:      "SyncWrite latency from submission to latch completion.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	Registry.MustRegister(
		GRPCMetrics,
		AppliedIndex,
		InjectedFailures,
		WriteLatency,
	)
	GRPCMetrics.EnableHandlingTimeHistogram(
		func(h *prometheus.HistogramOpts) {
			h.Namespace = namespace
		},
	)
}
