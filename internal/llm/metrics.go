package llm

import (
	"sync/atomic"
	"time"
)

// Metrics tracks provider call counters.
type Metrics struct {
	Calls     int64
	Errors    int64
	Retries   int64
	latencyNs int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		Calls:     atomic.LoadInt64(&globalMetrics.Calls),
		Errors:    atomic.LoadInt64(&globalMetrics.Errors),
		Retries:   atomic.LoadInt64(&globalMetrics.Retries),
		latencyNs: atomic.LoadInt64(&globalMetrics.latencyNs),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.Calls, 0)
	atomic.StoreInt64(&globalMetrics.Errors, 0)
	atomic.StoreInt64(&globalMetrics.Retries, 0)
	atomic.StoreInt64(&globalMetrics.latencyNs, 0)
}

// recordCall records one Complete invocation, including all of its attempts.
func recordCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.Calls, 1)
	atomic.AddInt64(&globalMetrics.latencyNs, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.Errors, 1)
	}
}

func recordRetry() {
	atomic.AddInt64(&globalMetrics.Retries, 1)
}

// AverageLatencyMs returns the average call latency in milliseconds
func (m Metrics) AverageLatencyMs() float64 {
	if m.Calls == 0 {
		return 0
	}
	return float64(m.latencyNs) / float64(m.Calls) / 1e6
}

// ErrorRate returns the error rate as a percentage
func (m Metrics) ErrorRate() float64 {
	if m.Calls == 0 {
		return 0
	}
	return float64(m.Errors) / float64(m.Calls) * 100
}
