// Package plan expands a run spec into fully-resolved request descriptors.
package plan

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/blastkit/blastd/internal/auth"
	"github.com/blastkit/blastd/internal/config"
)

// Descriptor is a self-contained specification of one request to issue.
// Each descriptor is created once and consumed by exactly one worker.
type Descriptor struct {
	Index   int
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Build expands the spec into spec.TotalRequests descriptors. It performs no
// I/O; for a given spec and rotator the output is fully deterministic.
//
// The rotated Authorization header overrides a same-named header from the
// spec. The body is attached only for non-GET methods, encoded once and
// shared read-only across descriptors.
func Build(spec config.RunSpec, rotator *auth.Rotator) ([]Descriptor, error) {
	var body []byte
	if spec.Body != nil && spec.Method != http.MethodGet {
		encoded, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}

	timeout := spec.TimeoutDuration()
	descriptors := make([]Descriptor, spec.TotalRequests)
	for i := range descriptors {
		headers := make(map[string]string, len(spec.Headers)+2)
		for key, value := range spec.Headers {
			headers[key] = value
		}
		if value := rotator.HeaderFor(i); value != "" {
			headers["Authorization"] = value
		}
		if body != nil {
			if _, ok := headers["Content-Type"]; !ok {
				headers["Content-Type"] = "application/json"
			}
		}

		descriptors[i] = Descriptor{
			Index:   i,
			Method:  spec.Method,
			URL:     spec.URL,
			Headers: headers,
			Body:    body,
			Timeout: timeout,
		}
	}

	return descriptors, nil
}
