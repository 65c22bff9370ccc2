package metrics

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// latencySampleCap bounds the retained sample window; the reservoir wraps
// once full so quantiles track recent behavior.
const latencySampleCap = 1024

// LatencySample keeps a bounded window of duration samples and summarizes
// them as quantiles. Unlike TimingMetric it retains raw observations, which
// is what quantile estimation needs.
type LatencySample struct {
	mu       sync.Mutex
	samples  []float64 // milliseconds
	next     int
	observed int // total observations, including those the window dropped
}

// FetchLatency tracks transport read latencies across all fetch kinds.
var FetchLatency = &LatencySample{}

// Record adds one observation.
func (l *LatencySample) Record(d time.Duration) {
	if !enabled {
		return
	}
	ms := float64(d.Nanoseconds()) / 1e6
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observed++
	if len(l.samples) < latencySampleCap {
		l.samples = append(l.samples, ms)
		return
	}
	l.samples[l.next] = ms
	l.next = (l.next + 1) % latencySampleCap
}

// LatencySummary holds quantile statistics in milliseconds. Count is the
// window size the quantiles were computed over; Observed is the lifetime
// observation count, which exceeds Count once the reservoir wraps.
type LatencySummary struct {
	Count    int     `json:"count"`
	Observed int     `json:"observed"`
	P50Ms    float64 `json:"p50_ms"`
	P90Ms    float64 `json:"p90_ms"`
	P99Ms    float64 `json:"p99_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// Summary computes p50/p90/p99 over the retained window.
func (l *LatencySample) Summary() LatencySummary {
	l.mu.Lock()
	sorted := make([]float64, len(l.samples))
	copy(sorted, l.samples)
	observed := l.observed
	l.mu.Unlock()

	if len(sorted) == 0 {
		return LatencySummary{}
	}
	sort.Float64s(sorted)
	return LatencySummary{
		Count:    len(sorted),
		Observed: observed,
		P50Ms:    stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90Ms:    stat.Quantile(0.90, stat.Empirical, sorted, nil),
		P99Ms:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
		MaxMs:    sorted[len(sorted)-1],
	}
}

// Reset drops every retained sample.
func (l *LatencySample) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = l.samples[:0]
	l.next = 0
	l.observed = 0
}
