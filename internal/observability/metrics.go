package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	upstreamRequestsTotal  *prometheus.CounterVec
	upstreamLatencySeconds prometheus.Histogram
	batchRunsTotal         *prometheus.CounterVec
	batchAccuracy          prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the scoring client.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentiment_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentiment_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentiment_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		upstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentiment_upstream_requests_total",
			Help: "Calls made to the external scoring service, by outcome.",
		}, []string{"outcome"})

		upstreamLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentiment_upstream_latency_seconds",
			Help:    "Wall-clock latency of calls to the external scoring service.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 4.0, 8.0},
		})

		batchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentiment_batch_runs_total",
			Help: "Batch evaluations executed, by result.",
		}, []string{"result"})

		batchAccuracy = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentiment_batch_last_accuracy",
			Help: "Accuracy of the most recently completed batch evaluation.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			upstreamRequestsTotal,
			upstreamLatencySeconds,
			batchRunsTotal,
			batchAccuracy,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// UpstreamRequests exposes the counter of scoring calls by outcome.
func UpstreamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return upstreamRequestsTotal
}

// UpstreamLatency exposes the scoring call latency histogram.
func UpstreamLatency() prometheus.Histogram {
	RegisterMetrics()
	return upstreamLatencySeconds
}

// BatchRuns exposes the counter of batch evaluations.
func BatchRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return batchRunsTotal
}

// BatchAccuracy exposes the gauge holding the last batch accuracy.
func BatchAccuracy() prometheus.Gauge {
	RegisterMetrics()
	return batchAccuracy
}
