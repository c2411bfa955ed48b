// Package output renders run results for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/blastkit/blastd/internal/report"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, result report.Result) {
	summary := result.Summary
	fmt.Fprintln(w, "\n--- Run Results ---")
	if result.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", result.RunID)
	}
	fmt.Fprintf(w, "Total Requests:    %d\n", summary.TotalRequests)
	fmt.Fprintf(w, "Successful:        %d\n", summary.SuccessfulCount)
	fmt.Fprintf(w, "Failed:            %d\n", summary.FailedCount)
	fmt.Fprintf(w, "Duration:          %.2fms\n", summary.TotalDurationMs)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Mean:            %.2fms\n", summary.AverageLatencyMs)
	fmt.Fprintf(w, "  P50:             %.2fms\n", summary.P50Ms)
	fmt.Fprintf(w, "  P95:             %.2fms\n", summary.P95Ms)
	fmt.Fprintf(w, "  P99:             %.2fms\n", summary.P99Ms)

	if len(result.Results) > 0 {
		failures := 0
		for _, o := range result.Results {
			if !o.OK {
				failures++
			}
		}
		fmt.Fprintf(w, "\nDetail:            %d entries (%d failed)\n", len(result.Results), failures)
	}
}

// PrintJSONReport outputs the full result payload as indented JSON.
func PrintJSONReport(w io.Writer, result report.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
