package gateway

import "github.com/zeromicro/go-zero/core/metric"

const metricNamespace = "cryptolens_gateway"

const (
	outcomeHit     = "hit"
	outcomeFetched = "fetched"
	outcomeError   = "error"
)

var (
	metricRequests = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: metricNamespace,
		Subsystem: "requests",
		Name:      "total",
		Help:      "gateway requests by upstream and outcome.",
		Labels:    []string{"upstream", "outcome"},
	})

	metricRetries = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: metricNamespace,
		Subsystem: "retries",
		Name:      "total",
		Help:      "gateway retries by upstream and failure kind.",
		Labels:    []string{"upstream", "reason"},
	})

	metricUpstreamDur = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: metricNamespace,
		Subsystem: "upstream",
		Name:      "duration_ms",
		Help:      "upstream attempt latency in milliseconds.",
		Labels:    []string{"upstream"},
		Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 7500},
	})
)
