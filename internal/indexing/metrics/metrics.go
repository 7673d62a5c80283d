package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks RPC attempts per chain and endpoint
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainreader_rpc_calls_total",
			Help: "Total number of RPC call attempts",
		},
		[]string{"chain", "endpoint", "method"},
	)

	// RPCErrorsTotal tracks failed attempts by classified kind
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainreader_rpc_errors_total",
			Help: "Total number of failed RPC attempts",
		},
		[]string{"chain", "endpoint", "kind"},
	)

	// RPCLatency tracks per-attempt latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainreader_rpc_latency_seconds",
			Help:    "RPC attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "endpoint", "method"},
	)

	// RPCRotationsTotal counts switches to another endpoint
	RPCRotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainreader_rpc_rotations_total",
			Help: "Total number of endpoint rotations",
		},
		[]string{"chain"},
	)

	// RPCExhaustedTotal counts calls that failed on every attempt
	RPCExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainreader_rpc_exhausted_total",
			Help: "Total number of calls that exhausted all endpoints",
		},
		[]string{"chain", "method"},
	)

	CooldownMarksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainreader_cooldown_marks_total",
			Help: "Total number of endpoints placed in cooldown",
		},
		[]string{"chain", "endpoint"},
	)

	// ChunkFailuresTotal counts log windows that could not be fetched
	ChunkFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainreader_scan_chunk_failures_total",
			Help: "Total number of failed log query windows",
		},
		[]string{"chain"},
	)

	// ChainHeadBlock tracks the latest head seen per chain
	ChainHeadBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainreader_chain_head_block",
			Help: "Latest block height observed for the chain",
		},
		[]string{"chain"},
	)

	// ResolutionsTotal counts hash resolutions by outcome (found, missing, skipped, failed)
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainreader_resolutions_total",
			Help: "Total number of record hash resolutions",
		},
		[]string{"chain", "outcome"},
	)

	ResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainreader_resolution_duration_seconds",
			Help:    "Time to resolve one record hash",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"chain"},
	)
)
