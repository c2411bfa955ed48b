// Package httpclient executes planned request descriptors over HTTP.
//
// It owns the transport-level concerns: connection pooling, per-request
// timeouts, body capture limits, and trace-context propagation. Success and
// failure classification is left to the dispatcher.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/blastkit/blastd/internal/plan"
	"github.com/blastkit/blastd/internal/tracing"
)

// maxBodyReadSize caps how much of a response body is retained per request.
const maxBodyReadSize = 1024 * 1024

// Response is the transport-level result of one executed descriptor. A
// Response with any status code counts as an obtained response; transport
// failures are reported as errors instead.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Payload decodes the captured body the way API consumers expect: parsed
// JSON when the server declared a JSON content type and the body is valid
// JSON, raw text otherwise. Returns nil when no body was captured.
func (r *Response) Payload() interface{} {
	if r == nil || r.Body == nil {
		return nil
	}
	if strings.Contains(r.ContentType, "application/json") && gjson.ValidBytes(r.Body) {
		return gjson.ParseBytes(r.Body).Value()
	}
	return string(r.Body)
}

// Sender abstracts the blocking transport call used by the dispatcher.
// Implementations must honor the descriptor's timeout and return either an
// obtained response or a transport error.
type Sender interface {
	Send(ctx context.Context, d plan.Descriptor) (*Response, error)
}

// NewClient creates an HTTP client tuned for load generation. The client
// itself carries no timeout; each request is bounded individually by its
// descriptor's timeout.
func NewClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{Transport: transport}
}

// HTTPSender executes descriptors against their target using a shared
// http.Client. One sender serves all workers of a run.
type HTTPSender struct {
	client      *http.Client
	tracer      trace.Tracer
	captureBody bool
}

// Option configures an HTTPSender.
type Option func(*HTTPSender)

// WithBodyCapture makes the sender retain response bodies (up to the capture
// limit) so per-request results can include the response payload.
func WithBodyCapture() Option {
	return func(s *HTTPSender) { s.captureBody = true }
}

// WithTracer enables a client span per request and W3C trace-context
// injection into outgoing headers.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *HTTPSender) { s.tracer = tracer }
}

// NewSender wraps an http.Client as a Sender.
func NewSender(client *http.Client, opts ...Option) *HTTPSender {
	if client == nil {
		client = NewClient()
	}
	s := &HTTPSender{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send issues one request and returns the obtained response or the transport
// error. The descriptor's timeout bounds the whole exchange.
func (s *HTTPSender) Send(ctx context.Context, d plan.Descriptor) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	var span trace.Span
	if s.tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, s.tracer, d.Method, d.URL, d.Index)
	}

	resp, err := s.send(ctx, d)
	if span != nil {
		if resp != nil {
			tracing.EndSpan(span, err, attribute.Int("http.response.status_code", resp.StatusCode))
		} else {
			tracing.EndSpan(span, err)
		}
	}
	return resp, err
}

func (s *HTTPSender) send(ctx context.Context, d plan.Descriptor) (*Response, error) {
	var body io.Reader
	if d.Body != nil {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL, body)
	if err != nil {
		return nil, err
	}
	for key, value := range d.Headers {
		req.Header.Set(key, value)
	}
	if d.Body != nil {
		req.ContentLength = int64(len(d.Body))
	}
	if s.tracer != nil {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if s.captureBody {
		captured, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
		if readErr == nil {
			result.Body = captured
		}
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return result, nil
}
