package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartRunSpan starts a span covering a whole load-generation run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, runID string, totalRequests, maxWorkers int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "load run",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("blastd.run_id", runID),
		attribute.Int("blastd.total_requests", totalRequests),
		attribute.Int("blastd.max_workers", maxWorkers),
	)
	return ctx, span
}

// StartRequestSpan starts a client span for one generated request.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, method, target string, index int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, method+" request",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
		attribute.Int("blastd.request_index", index),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
