package matching

import (
	"sync"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// latencyRecorder tracks Submit call latency as a percentile histogram.
// Range covers 1 nanosecond to 1 second with 3 significant figures,
// generous enough for both backtest (µs-scale, in-process) and live
// (ms-scale, gateway round trips) Submit calls.
type latencyRecorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func newLatencyRecorder() *latencyRecorder {
	return &latencyRecorder{
		hist: hdrhistogram.New(1, 1_000_000_000, 3),
	}
}

func (r *latencyRecorder) record(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(d.Nanoseconds())
}

// Snapshot returns the p50/p99/max Submit latency observed so far, in
// nanoseconds.
func (r *latencyRecorder) Snapshot() (p50, p99, max int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hist.ValueAtQuantile(50), r.hist.ValueAtQuantile(99), r.hist.Max()
}

// startTiming begins a Submit latency measurement; call the returned
// func when Submit returns to record it.
func (e *Engine) startTiming() func() {
	start := time.Now()
	return func() { e.latency.record(time.Since(start)) }
}
