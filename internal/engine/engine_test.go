package engine_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/blastkit/blastd/internal/config"
	"github.com/blastkit/blastd/internal/engine"
)

func testSpec(url string) config.RunSpec {
	spec := config.RunSpec{
		URL:           url,
		TotalRequests: 5,
		MaxWorkers:    2,
	}
	spec.ApplyDefaults()
	return spec
}

func TestRunAgainstLiveTarget(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	spec := testSpec(server.URL)
	spec.IncludeResults = true

	result, err := engine.New(zerolog.Nop()).Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if atomic.LoadInt64(&hits) != 5 {
		t.Errorf("expected 5 requests to reach the target, got %d", hits)
	}
	if result.RunID == "" {
		t.Errorf("expected a run id")
	}
	if result.Summary.TotalRequests != 5 || result.Summary.SuccessfulCount != 5 || result.Summary.FailedCount != 0 {
		t.Errorf("unexpected summary: %+v", result.Summary)
	}
	if len(result.Results) != 5 {
		t.Fatalf("expected 5 detail entries, got %d", len(result.Results))
	}
	for i, o := range result.Results {
		if o.Index != i {
			t.Errorf("detail position %d holds index %d", i, o.Index)
		}
		if o.StatusCode == nil || *o.StatusCode != 200 {
			t.Errorf("entry %d missing status 200", i)
		}
		payload, ok := o.Response.(map[string]interface{})
		if !ok || payload["status"] != "ok" {
			t.Errorf("entry %d: expected parsed JSON payload, got %#v", i, o.Response)
		}
	}
}

func TestRunOmitsDetailByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	result, err := engine.New(zerolog.Nop()).Run(context.Background(), testSpec(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Results != nil {
		t.Errorf("expected no detail entries")
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	if string(encoded) == "" || json.Valid(encoded) == false {
		t.Fatalf("result must serialize")
	}
}

func TestRunRotatesTokensAcrossRequests(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Header.Get("Authorization")]++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	spec := testSpec(server.URL)
	spec.TotalRequests = 4
	spec.Tokens = []string{"t0", "t1"}
	spec.AuthScheme = "bearer"

	if _, err := engine.New(zerolog.Nop()).Run(context.Background(), spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if seen["Bearer t0"] != 2 || seen["Bearer t1"] != 2 {
		t.Errorf("expected even rotation across tokens, got %v", seen)
	}
}

func TestRunForwardsBody(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	spec := testSpec(server.URL)
	spec.TotalRequests = 2
	spec.Method = "POST"
	spec.Body = map[string]interface{}{"name": "demo"}

	result, err := engine.New(zerolog.Nop()).Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.SuccessfulCount != 2 {
		t.Errorf("unexpected summary: %+v", result.Summary)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, body := range bodies {
		if body != `{"name":"demo"}` {
			t.Errorf("unexpected request body %q", body)
		}
	}
}

func TestRunCountsTransportFailures(t *testing.T) {
	// A listener that is immediately closed guarantees connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	spec := testSpec(deadURL)
	spec.TotalRequests = 3
	spec.IncludeResults = true
	spec.Timeout = 2

	result, err := engine.New(zerolog.Nop()).Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("transport failures must not abort the run: %v", err)
	}
	if result.Summary.FailedCount != 3 || result.Summary.SuccessfulCount != 0 {
		t.Errorf("unexpected summary: %+v", result.Summary)
	}
	for i, o := range result.Results {
		if o.OK || o.Error == "" || o.StatusCode != nil {
			t.Errorf("entry %d: expected transport failure outcome, got %+v", i, o)
		}
	}
}

func TestRunRejectsInvalidSpecBeforeDispatch(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer server.Close()

	spec := testSpec(server.URL)
	spec.TotalRequests = -1

	_, err := engine.New(zerolog.Nop()).Run(context.Background(), spec)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if _, ok := err.(config.ValidationError); !ok {
		t.Errorf("expected ValidationError, got %T", err)
	}
	if atomic.LoadInt64(&hits) != 0 {
		t.Errorf("no request may be dispatched for an invalid spec")
	}
}

func TestRunRejectsUnknownAuthScheme(t *testing.T) {
	spec := testSpec("http://example.com")
	spec.Tokens = []string{"tok"}
	spec.AuthScheme = "digest"

	if _, err := engine.New(zerolog.Nop()).Run(context.Background(), spec); err == nil {
		t.Fatalf("expected error for unknown auth scheme")
	}
}
