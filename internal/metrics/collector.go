package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records per-request latencies in a thread-safe manner while a
// run is in flight. It backs progress reporting and run-completion logging;
// the authoritative Summary is computed from the outcome set instead.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	successes    int64
	failures     int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	errorsByType map[string]int64
	start        time.Time
}

// Snapshot represents the collector state at one point in time.
type Snapshot struct {
	Total          int64
	Successes      int64
	Failures       int64
	MinLatencyMs   float64
	MaxLatencyMs   float64
	MeanLatencyMs  float64
	P50LatencyMs   float64
	P99LatencyMs   float64
	RequestsPerSec float64
	Errors         map[string]int
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		errorsByType: make(map[string]int64),
		start:        time.Now(),
	}
}

// Start marks the actual run start so elapsed-based rates are accurate even
// when the collector was created earlier.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// RecordRequest records a single request's latency and error state.
func (c *Collector) RecordRequest(latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if err == nil {
		c.successes++
	} else {
		errorType := fmt.Sprintf("%T", err)
		if len(errorType) > 30 {
			errorType = errorType[len(errorType)-30:]
		}
		c.failures++
		c.errorsByType[errorType]++
	}
}

// Snapshot computes the current aggregated state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	snap := Snapshot{
		Total:        total,
		Successes:    c.successes,
		Failures:     c.failures,
		MinLatencyMs: float64(c.minLatency) / float64(time.Millisecond),
		MaxLatencyMs: float64(c.maxLatency) / float64(time.Millisecond),
	}

	if total > 0 {
		mean := time.Duration(int64(c.sumLatency) / total)
		snap.MeanLatencyMs = float64(mean) / float64(time.Millisecond)
	}

	if c.hist.TotalCount() > 0 {
		snap.P50LatencyMs = float64(c.hist.ValueAtQuantile(50)) / 1000
		snap.P99LatencyMs = float64(c.hist.ValueAtQuantile(99)) / 1000
	}

	elapsed := time.Since(c.start)
	if elapsed > 0 && total > 0 {
		snap.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.errorsByType) > 0 {
		snap.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			snap.Errors[k] = int(v)
		}
	}

	return snap
}
