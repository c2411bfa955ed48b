// Package runner provides the bounded concurrent dispatcher at the core of blastd.
//
// The runner fans a fixed set of planned request descriptors out across a
// pool of worker goroutines, bounding in-flight concurrency while isolating
// per-request failure: a timeout or connection error on one request never
// affects the scheduling or outcome of any other. Every descriptor produces
// exactly one outcome, and the run completes only once all outcomes are
// recorded.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		Workers: 10,
//		Sender:  sender,
//	})
//	result, err := r.Run(ctx, descriptors)
//
// # Sender Interface
//
// The dispatcher delegates transport semantics to an
// [github.com/blastkit/blastd/internal/httpclient.Sender]; it only measures
// elapsed wall-clock time per request and classifies the outcome as an
// obtained response or a transport failure.
//
// # Concurrency Model
//
// Workers claim descriptor indices from a shared atomic counter until none
// remain, so effective concurrency is min(Workers, len(descriptors)). There
// is no retry, no pacing, and no mid-run cancellation path beyond the
// caller's context; each request is individually bounded by its descriptor's
// timeout.
package runner
