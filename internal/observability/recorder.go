package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

// P95MinObservations is the number of observations needed before a p95 is reported.
const P95MinObservations = 20

// MetricsSnapshot is a point-in-time copy of the recorder state.
type MetricsSnapshot struct {
	TotalRequests   int      `json:"total_requests"`
	SuccessRequests int      `json:"success_requests"`
	FailedRequests  int      `json:"failed_requests"`
	LastLatencyMs   *float64 `json:"last_latency_ms"`
	AvgLatencyMs    *float64 `json:"avg_latency_ms"`
	P95LatencyMs    *float64 `json:"p95_latency_ms"`
}

// Recorder is the process-wide, append-only log of upstream call attempts.
// A single instance is created at start-up and passed to the components that need it.
type Recorder struct {
	mu        sync.Mutex
	total     int
	success   int
	failed    int
	latencies []float64
	last      *float64
	exportOff bool
}

// NewRecorder returns an empty recorder that also mirrors observations into Prometheus.
func NewRecorder() *Recorder {
	RegisterMetrics()
	return &Recorder{}
}

// NewIsolatedRecorder returns a recorder that keeps its state purely in memory.
func NewIsolatedRecorder() *Recorder {
	return &Recorder{exportOff: true}
}

// Record appends one completed call attempt.
func (r *Recorder) Record(success bool, latencyMs float64) {
	r.mu.Lock()
	r.total++
	if success {
		r.success++
	} else {
		r.failed++
	}
	last := latencyMs
	r.last = &last
	r.latencies = append(r.latencies, latencyMs)
	r.mu.Unlock()

	if r.exportOff {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	UpstreamRequests().WithLabelValues(outcome).Inc()
	UpstreamLatency().Observe(latencyMs / float64(time.Second/time.Millisecond))
}

// Snapshot returns a consistent view of the counters and latency statistics.
func (r *Recorder) Snapshot() MetricsSnapshot {
	r.mu.Lock()
	snapshot := MetricsSnapshot{
		TotalRequests:   r.total,
		SuccessRequests: r.success,
		FailedRequests:  r.failed,
	}
	if r.last != nil {
		last := *r.last
		snapshot.LastLatencyMs = &last
	}
	latencies := make([]float64, len(r.latencies))
	copy(latencies, r.latencies)
	r.mu.Unlock()

	if len(latencies) == 0 {
		return snapshot
	}

	var sum float64
	for _, value := range latencies {
		sum += value
	}
	avg := sum / float64(len(latencies))
	snapshot.AvgLatencyMs = &avg

	if p95, ok := Percentile95(latencies); ok {
		snapshot.P95LatencyMs = &p95
	}

	return snapshot
}

// Percentile95 sorts values in place and returns the element at floor(0.95*(n-1)).
// It reports false when fewer than P95MinObservations values are given.
func Percentile95(values []float64) (float64, bool) {
	if len(values) < P95MinObservations {
		return 0, false
	}
	sort.Float64s(values)
	index := int(math.Floor(0.95 * float64(len(values)-1)))
	return values[index], true
}
