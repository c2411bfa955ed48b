// Package engine orchestrates one load-generation run from spec to result.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/blastkit/blastd/internal/auth"
	"github.com/blastkit/blastd/internal/config"
	"github.com/blastkit/blastd/internal/httpclient"
	"github.com/blastkit/blastd/internal/metrics"
	"github.com/blastkit/blastd/internal/output"
	"github.com/blastkit/blastd/internal/plan"
	"github.com/blastkit/blastd/internal/report"
	"github.com/blastkit/blastd/internal/runner"
	"github.com/blastkit/blastd/internal/tracing"
)

const progressInterval = time.Second

// Engine executes runs. It holds no per-run state, so a single Engine can
// serve concurrent runs within one process.
type Engine struct {
	logger         zerolog.Logger
	tracer         trace.Tracer
	progressWriter io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracer enables run and per-request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithProgressWriter enables live progress output during runs.
func WithProgressWriter(w io.Writer) Option {
	return func(e *Engine) { e.progressWriter = w }
}

// New creates an Engine.
func New(logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates the spec, plans the descriptors, dispatches them across the
// worker pool, and returns the assembled result. Validation failures reject
// the run before any request is sent. The run executes to completion; each
// request is individually bounded by the spec timeout.
func (e *Engine) Run(ctx context.Context, spec config.RunSpec) (report.Result, error) {
	if err := spec.Validate(); err != nil {
		return report.Result{}, err
	}

	rotator, err := auth.NewRotator(spec.AuthScheme, spec.Tokens)
	if err != nil {
		return report.Result{}, err
	}

	descriptors, err := plan.Build(spec, rotator)
	if err != nil {
		return report.Result{}, err
	}

	runID := ulid.Make().String()
	logger := e.logger.With().Str("run_id", runID).Logger()
	logger.Info().
		Str("target", spec.URL).
		Str("method", spec.Method).
		Int("total_requests", spec.TotalRequests).
		Int("max_workers", spec.MaxWorkers).
		Int("tokens", rotator.Len()).
		Msg("starting run")

	client := httpclient.NewClient()
	defer client.CloseIdleConnections()

	senderOpts := []httpclient.Option{}
	if spec.IncludeResults {
		senderOpts = append(senderOpts, httpclient.WithBodyCapture())
	}
	if e.tracer != nil {
		senderOpts = append(senderOpts, httpclient.WithTracer(e.tracer))
	}
	sender := httpclient.NewSender(client, senderOpts...)

	collector := metrics.NewCollector()

	var progress *output.ProgressReporter
	if e.progressWriter != nil {
		progress = output.NewProgressReporter(collector, progressInterval, e.progressWriter)
		progress.Start()
	}

	var span trace.Span
	if e.tracer != nil {
		ctx, span = tracing.StartRunSpan(ctx, e.tracer, runID, spec.TotalRequests, spec.MaxWorkers)
	}

	collector.Start()
	result, err := runner.New(runner.Options{
		Workers:   spec.MaxWorkers,
		Sender:    sender,
		Collector: collector,
	}).Run(ctx, descriptors)

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(e.progressWriter)
	}

	if err != nil {
		if span != nil {
			tracing.EndSpan(span, err)
		}
		logger.Error().Err(err).Msg("run aborted")
		return report.Result{}, fmt.Errorf("run %s: %w", runID, err)
	}

	summary := metrics.Summarize(result.Outcomes, result.Duration)
	if span != nil {
		tracing.EndSpan(span, nil,
			attribute.Int("blastd.successful", summary.SuccessfulCount),
			attribute.Int("blastd.failed", summary.FailedCount),
		)
	}

	event := logger.Info().
		Int("successful", summary.SuccessfulCount).
		Int("failed", summary.FailedCount).
		Float64("avg_latency_ms", summary.AverageLatencyMs).
		Float64("p99_ms", summary.P99Ms).
		Float64("duration_ms", summary.TotalDurationMs)
	if snap := collector.Snapshot(); len(snap.Errors) > 0 {
		event = event.Interface("error_breakdown", snap.Errors)
	}
	event.Msg("run completed")

	return report.Assemble(runID, summary, result.Outcomes, spec.IncludeResults), nil
}
