// Package threshold evaluates pass/fail assertions against a run summary.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/blastkit/blastd/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "req_duration", "req_failed"
	Aggregate string  // e.g., "p95", "p99", "avg", "rate", "count"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // the value to compare against
	Raw       string  // original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

var pattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string.
// Supported formats:
//   - "req_duration:p50 < 500"   (latency percentile in ms; also p95, p99, avg)
//   - "req_failed:count < 10"    (failure count)
//   - "req_failed:rate < 0.01"   (failure rate as decimal)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g., 'req_duration:p95 < 500')", s)
	}

	metric, aggregate, operator, valueStr := matches[1], matches[2], matches[3], matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	switch metric {
	case "req_duration", "req_failed":
	default:
		return Threshold{}, fmt.Errorf("unsupported metric %q (supported: req_duration, req_failed)", metric)
	}

	switch aggregate {
	case "p50", "p95", "p99", "avg", "rate", "count":
	default:
		return Threshold{}, fmt.Errorf("unsupported aggregate %q (supported: p50, p95, p99, avg, rate, count)", aggregate)
	}

	switch operator {
	case "<", "<=", ">", ">=", "==":
	default:
		return Threshold{}, fmt.Errorf("unsupported operator %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, reporting every problem.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var problems []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(problems, "; "))
	}
	return result, nil
}

// Evaluate checks all thresholds against a run summary.
func Evaluate(thresholds []Threshold, summary metrics.Summary) []Result {
	if len(thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		results = append(results, evaluateOne(t, summary))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, summary metrics.Summary) Result {
	actual, err := extractValue(t, summary)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compare(actual, t.Operator, t.Value)
	status := "PASS"
	if !pass {
		status = "FAIL"
	}

	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

func extractValue(t Threshold, summary metrics.Summary) (float64, error) {
	switch t.Metric {
	case "req_duration":
		switch t.Aggregate {
		case "p50":
			return summary.P50Ms, nil
		case "p95":
			return summary.P95Ms, nil
		case "p99":
			return summary.P99Ms, nil
		case "avg":
			return summary.AverageLatencyMs, nil
		}
		return 0, fmt.Errorf("aggregate %q not valid for req_duration", t.Aggregate)
	case "req_failed":
		switch t.Aggregate {
		case "count":
			return float64(summary.FailedCount), nil
		case "rate":
			if summary.TotalRequests == 0 {
				return 0, nil
			}
			return float64(summary.FailedCount) / float64(summary.TotalRequests), nil
		}
		return 0, fmt.Errorf("aggregate %q not valid for req_failed", t.Aggregate)
	}
	return 0, fmt.Errorf("unknown metric %q", t.Metric)
}

func compare(actual float64, operator string, value float64) bool {
	const epsilon = 1e-9
	switch operator {
	case "<":
		return actual < value
	case "<=":
		return actual <= value
	case ">":
		return actual > value
	case ">=":
		return actual >= value
	case "==":
		return math.Abs(actual-value) < epsilon
	default:
		return false
	}
}
