// Package metrics collects and aggregates per-request outcomes of a run.
package metrics

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Outcome records the result of executing one descriptor. Exactly one
// Outcome exists per descriptor after a run completes; it is written once
// and never mutated afterward.
type Outcome struct {
	Index      int         `json:"index"`
	OK         bool        `json:"ok"`
	StatusCode *int        `json:"status_code,omitempty"`
	LatencyMs  float64     `json:"time_ms"`
	Error      string      `json:"error,omitempty"`
	Response   interface{} `json:"response,omitempty"`
}

// RoundMs converts a duration to milliseconds rounded to two decimals,
// the precision reported in results.
func RoundMs(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

// OutcomeSet is a thread-safe write-once store of outcomes keyed by
// descriptor index. After every worker finishes, indices 0..n-1 are each
// populated exactly once regardless of completion order.
type OutcomeSet struct {
	mu       sync.Mutex
	outcomes []Outcome
	filled   []bool
	recorded int
}

// NewOutcomeSet creates a store sized for n descriptors.
func NewOutcomeSet(n int) *OutcomeSet {
	return &OutcomeSet{
		outcomes: make([]Outcome, n),
		filled:   make([]bool, n),
	}
}

// Record stores the outcome for its index. Recording out of range or twice
// for the same index is an error; the concurrency model must never do either.
func (s *OutcomeSet) Record(o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.Index < 0 || o.Index >= len(s.outcomes) {
		return fmt.Errorf("outcome index %d out of range [0,%d)", o.Index, len(s.outcomes))
	}
	if s.filled[o.Index] {
		return fmt.Errorf("outcome for index %d recorded twice", o.Index)
	}

	s.outcomes[o.Index] = o
	s.filled[o.Index] = true
	s.recorded++
	return nil
}

// Len reports how many outcomes have been recorded so far.
func (s *OutcomeSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded
}

// Complete reports whether every index has been populated.
func (s *OutcomeSet) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded == len(s.outcomes)
}

// Outcomes returns a copy of the stored outcomes in index order.
func (s *OutcomeSet) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Outcome, len(s.outcomes))
	copy(copied, s.outcomes)
	return copied
}
