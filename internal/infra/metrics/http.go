package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(httpLatencyMs) }

var httpLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_latency_ms",
		Help:    "HTTP request latency distribution in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
	},
	[]string{"method", "path", "status"},
)

func ObserveHTTPLatency(method, path, status string, ms float64) {
	httpLatencyMs.WithLabelValues(method, path, status).Observe(ms)
}
