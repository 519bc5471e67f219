package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrRunInProgress is returned by Runner.Run while another run is active.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Runner guards a Pipeline so that at most one run is active at a time.
type Runner struct {
	p       *Pipeline
	running atomic.Bool

	mu   sync.RWMutex
	last *Report
}

func NewRunner(p *Pipeline) *Runner {
	return &Runner{p: p}
}

// Run starts a run unless one is already active, in which case it returns
// ErrRunInProgress without doing anything.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	report, err := r.p.Run(ctx)
	r.mu.Lock()
	r.last = report
	r.mu.Unlock()
	return report, err
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Last returns the report of the most recent finished run, or nil.
func (r *Runner) Last() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}
