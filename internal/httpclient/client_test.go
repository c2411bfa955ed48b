package httpclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blastkit/blastd/internal/httpclient"
	"github.com/blastkit/blastd/internal/plan"
)

func TestSendForwardsDescriptor(t *testing.T) {
	var gotMethod, gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := httpclient.NewSender(httpclient.NewClient())
	resp, err := sender.Send(context.Background(), plan.Descriptor{
		Index:   0,
		Method:  "POST",
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer tok", "Content-Type": "application/json"},
		Body:    []byte(`{"a":1}`),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}
	if gotMethod != "POST" || gotAuth != "Bearer tok" || gotBody != `{"a":1}` {
		t.Errorf("request not forwarded correctly: %s %s %s", gotMethod, gotAuth, gotBody)
	}
}

func TestSendHonorsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	sender := httpclient.NewSender(httpclient.NewClient())
	start := time.Now()
	_, err := sender.Send(context.Background(), plan.Descriptor{
		Method:  "GET",
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})
	elapsed := time.Since(start)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed > 250*time.Millisecond {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
}

func TestSendErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := httpclient.NewSender(httpclient.NewClient())
	resp, err := sender.Send(context.Background(), plan.Descriptor{Method: "GET", URL: server.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("a 5xx response is still an obtained response: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func TestBodyCapture(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"items":[1,2,3]}`))
	}))
	defer server.Close()

	descriptor := plan.Descriptor{Method: "GET", URL: server.URL, Timeout: time.Second}

	plain := httpclient.NewSender(httpclient.NewClient())
	resp, err := plain.Send(context.Background(), descriptor)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Body != nil || resp.Payload() != nil {
		t.Errorf("body must not be captured unless requested")
	}

	capturing := httpclient.NewSender(httpclient.NewClient(), httpclient.WithBodyCapture())
	resp, err = capturing.Send(context.Background(), descriptor)
	if err != nil {
		t.Fatal(err)
	}
	payload, ok := resp.Payload().(map[string]interface{})
	if !ok {
		t.Fatalf("expected parsed JSON payload, got %#v", resp.Payload())
	}
	if items, ok := payload["items"].([]interface{}); !ok || len(items) != 3 {
		t.Errorf("unexpected payload %#v", payload)
	}
}

func TestPayloadFallsBackToText(t *testing.T) {
	resp := &httpclient.Response{
		StatusCode:  200,
		ContentType: "text/plain",
		Body:        []byte("hello"),
	}
	if got := resp.Payload(); got != "hello" {
		t.Errorf("expected raw text payload, got %#v", got)
	}

	invalid := &httpclient.Response{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte("{broken"),
	}
	if got, ok := invalid.Payload().(string); !ok || !strings.Contains(got, "broken") {
		t.Errorf("invalid JSON must fall back to text, got %#v", invalid.Payload())
	}
}

func TestSendTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	sender := httpclient.NewSender(nil)
	_, err := sender.Send(context.Background(), plan.Descriptor{Method: "GET", URL: deadURL, Timeout: time.Second})
	if err == nil {
		t.Fatalf("expected connection error")
	}
}
