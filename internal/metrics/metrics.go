package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RPCRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "porlarr",
		Name:      "rpc_requests_total",
		Help:      "Total JSON-RPC calls by method and outcome.",
	}, []string{"method", "outcome"})

	RPCRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "porlarr",
		Name:      "rpc_request_duration_seconds",
		Help:      "JSON-RPC call duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5, 15},
	}, []string{"method"})

	DownloadItems = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "porlarr",
		Name:      "download_items",
		Help:      "Items reported by each client at the last poll, by status.",
	}, []string{"client", "status"})

	SkippedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "porlarr",
		Name:      "skipped_records_total",
		Help:      "Daemon records dropped while listing because they had no usable hash.",
	}, []string{"client"})

	ConnectionTestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "porlarr",
		Name:      "connection_tests_total",
		Help:      "Connection tests by client and result.",
	}, []string{"client", "result"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		RPCRequestsTotal,
		RPCRequestDuration,
		DownloadItems,
		SkippedRecordsTotal,
		ConnectionTestsTotal,
	)
}
