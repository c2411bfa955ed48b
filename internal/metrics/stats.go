package metrics

import (
	"math"
	"sort"
	"time"
)

// Summary aggregates the outcome set of one completed run. It is derived
// purely from the outcomes plus the dispatcher-measured wall-clock duration
// and is recomputed fresh per run.
type Summary struct {
	TotalRequests    int     `json:"total_requests"`
	SuccessfulCount  int     `json:"successful_count"`
	FailedCount      int     `json:"failed_count"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	P50Ms            float64 `json:"p50_ms"`
	P95Ms            float64 `json:"p95_ms"`
	P99Ms            float64 `json:"p99_ms"`
	TotalDurationMs  float64 `json:"total_duration_ms"`
}

// Summarize reduces outcomes into a Summary. Success means a response was
// obtained, whatever its status code; only transport-level failures count as
// failed. Latencies of successes and failures alike feed the mean and the
// nearest-rank percentiles.
func Summarize(outcomes []Outcome, totalDuration time.Duration) Summary {
	summary := Summary{
		TotalRequests:   len(outcomes),
		TotalDurationMs: RoundMs(totalDuration),
	}
	if len(outcomes) == 0 {
		return summary
	}

	latencies := make([]float64, 0, len(outcomes))
	var sum float64
	for _, o := range outcomes {
		if o.OK {
			summary.SuccessfulCount++
		} else {
			summary.FailedCount++
		}
		latencies = append(latencies, o.LatencyMs)
		sum += o.LatencyMs
	}

	sort.Float64s(latencies)
	summary.AverageLatencyMs = round2(sum / float64(len(latencies)))
	summary.P50Ms = nearestRank(latencies, 50)
	summary.P95Ms = nearestRank(latencies, 95)
	summary.P99Ms = nearestRank(latencies, 99)

	return summary
}

// nearestRank selects the percentile value from an ascending-sorted sample
// without interpolation: index ceil(p/100*n)-1, clamped to the sample range.
func nearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
