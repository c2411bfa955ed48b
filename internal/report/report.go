// Package report assembles the final payload returned for a completed run.
package report

import (
	"sort"

	"github.com/blastkit/blastd/internal/metrics"
)

// Result is the response payload for one run: the summary plus, when
// requested, the full per-request detail list ordered by index.
type Result struct {
	RunID   string            `json:"run_id,omitempty"`
	Summary metrics.Summary   `json:"summary"`
	Results []metrics.Outcome `json:"results,omitempty"`
}

// Assemble combines the summary and outcomes into a Result. When
// includeResults is false the per-request detail is omitted entirely, so the
// payload stays constant-sized regardless of run size. When true, outcomes
// are sorted ascending by index so the output is reproducible no matter the
// actual completion order. Assembly never mutates its inputs; calling it
// twice with the same arguments yields identical results.
func Assemble(runID string, summary metrics.Summary, outcomes []metrics.Outcome, includeResults bool) Result {
	result := Result{RunID: runID, Summary: summary}
	if !includeResults {
		return result
	}

	detail := make([]metrics.Outcome, len(outcomes))
	copy(detail, outcomes)
	sort.Slice(detail, func(i, j int) bool { return detail[i].Index < detail[j].Index })
	result.Results = detail
	return result
}
