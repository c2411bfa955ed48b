package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/blastkit/blastd/internal/metrics"
	"github.com/blastkit/blastd/internal/report"
)

func sampleOutcomes() []metrics.Outcome {
	status := 200
	// Deliberately out of index order, as completion order would be.
	return []metrics.Outcome{
		{Index: 3, OK: true, StatusCode: &status, LatencyMs: 12},
		{Index: 0, OK: true, StatusCode: &status, LatencyMs: 10},
		{Index: 2, LatencyMs: 100, Error: "timeout"},
		{Index: 1, OK: true, StatusCode: &status, LatencyMs: 11},
	}
}

func TestAssembleOrdersDetailByIndex(t *testing.T) {
	summary := metrics.Summarize(sampleOutcomes(), 0)
	result := report.Assemble("run-1", summary, sampleOutcomes(), true)

	if len(result.Results) != 4 {
		t.Fatalf("expected 4 detail entries, got %d", len(result.Results))
	}
	for i, o := range result.Results {
		if o.Index != i {
			t.Errorf("detail position %d holds index %d", i, o.Index)
		}
	}
}

func TestAssembleOmitsDetailWhenNotRequested(t *testing.T) {
	summary := metrics.Summarize(sampleOutcomes(), 0)
	result := report.Assemble("run-1", summary, sampleOutcomes(), false)

	if result.Results != nil {
		t.Fatalf("expected no detail entries, got %d", len(result.Results))
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(encoded, []byte(`"results"`)) {
		t.Errorf("results key must be omitted from the payload: %s", encoded)
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	summary := metrics.Summarize(sampleOutcomes(), 0)
	outcomes := sampleOutcomes()

	first, err := json.Marshal(report.Assemble("run-1", summary, outcomes, true))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(report.Assemble("run-1", summary, outcomes, true))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("assembly must be byte-identical across calls")
	}
}

func TestAssembleDoesNotMutateInput(t *testing.T) {
	summary := metrics.Summarize(sampleOutcomes(), 0)
	outcomes := sampleOutcomes()
	originalFirst := outcomes[0].Index

	report.Assemble("run-1", summary, outcomes, true)

	if outcomes[0].Index != originalFirst {
		t.Errorf("input outcome slice was reordered")
	}
}

func TestFailedOutcomeSerialization(t *testing.T) {
	summary := metrics.Summarize(sampleOutcomes(), 0)
	result := report.Assemble("run-1", summary, sampleOutcomes(), true)

	encoded, err := json.Marshal(result.Results[2])
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(encoded, []byte(`"status_code"`)) {
		t.Errorf("failed outcome must not carry a status code: %s", encoded)
	}
	if !bytes.Contains(encoded, []byte(`"error":"timeout"`)) {
		t.Errorf("failed outcome must carry its error: %s", encoded)
	}
}
