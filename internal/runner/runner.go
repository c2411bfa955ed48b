package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blastkit/blastd/internal/httpclient"
	"github.com/blastkit/blastd/internal/metrics"
	"github.com/blastkit/blastd/internal/plan"
)

// Options configure the Runner.
type Options struct {
	Workers   int                // upper bound on concurrent in-flight requests
	Sender    httpclient.Sender  // transport executor (required)
	Collector *metrics.Collector // optional live collector for progress reporting
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
}

// Result captures the execution of one run: the complete outcome set in
// index order and the wall-clock span from first dispatch to last outcome.
type Result struct {
	Outcomes []metrics.Outcome
	Duration time.Duration
}

// Runner coordinates bounded concurrent execution of planned descriptors.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run executes every descriptor exactly once and blocks until all outcomes
// are recorded. Workers claim the next unclaimed descriptor from a shared
// counter, so completion order is unrelated to index order.
func (r *Runner) Run(ctx context.Context, descriptors []plan.Descriptor) (Result, error) {
	if r.opt.Sender == nil {
		return Result{}, fmt.Errorf("sender is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	n := len(descriptors)
	if n == 0 {
		return Result{Outcomes: []metrics.Outcome{}}, nil
	}

	workers := r.opt.Workers
	if workers > n {
		workers = n
	}

	set := metrics.NewOutcomeSet(n)
	start := time.Now()

	var next int64 = -1
	var recordFailure atomic.Value

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				idx := int(atomic.AddInt64(&next, 1))
				if idx >= n {
					return
				}
				outcome := r.execute(ctx, descriptors[idx])
				if err := set.Record(outcome); err != nil {
					recordFailure.Store(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	duration := time.Since(start)

	if err, ok := recordFailure.Load().(error); ok {
		return Result{}, err
	}
	if !set.Complete() {
		return Result{}, fmt.Errorf("run incomplete: %d of %d outcomes recorded", set.Len(), n)
	}

	return Result{Outcomes: set.Outcomes(), Duration: duration}, nil
}

// execute issues one request and converts the transport result into an
// outcome. A response with any status code is a success; transport errors
// are terminal for this single request only.
func (r *Runner) execute(ctx context.Context, d plan.Descriptor) metrics.Outcome {
	start := time.Now()
	resp, err := r.opt.Sender.Send(ctx, d)
	latency := time.Since(start)

	if r.opt.Collector != nil {
		r.opt.Collector.RecordRequest(latency, err)
	}

	outcome := metrics.Outcome{
		Index:     d.Index,
		LatencyMs: metrics.RoundMs(latency),
	}
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	status := resp.StatusCode
	outcome.OK = true
	outcome.StatusCode = &status
	outcome.Response = resp.Payload()
	return outcome
}
