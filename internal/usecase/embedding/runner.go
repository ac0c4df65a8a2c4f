package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
)

type runMode int

const (
	modeAll runMode = iota
	modeIfEmpty
	modeReset
)

// run is one background rebuild.
type run struct {
	startedAt time.Time
	mode      runMode
	cancel    context.CancelFunc
	done      chan struct{}

	// Set before done is closed.
	report Report
	ran    bool
	err    error
}

// Status describes the runner state.
type Status struct {
	Running   bool
	StartedAt time.Time
	// Last is the most recent finished rebuild that actually ran.
	Last    *Report
	LastErr error
}

// Runner executes rebuilds off the request path. Starting a rebuild cancels
// the one in flight and waits for it to stop first.
type Runner struct {
	pipeline Rebuilder
	base     context.Context
	logger   *zap.Logger

	startMu sync.Mutex // serializes Start so only one run is ever live
	mu      sync.Mutex
	current *run
	last    *run
}

// NewRunner creates a runner. Background runs derive from base, so
// cancelling base stops them.
func NewRunner(base context.Context, pipeline Rebuilder, logger *zap.Logger) *Runner {
	return &Runner{pipeline: pipeline, base: base, logger: logger}
}

// Start launches a full rebuild in the background.
func (r *Runner) Start() {
	r.start(modeAll)
}

// StartIfEmpty launches a background rebuild that only runs when the index
// is empty. Intended for process start.
func (r *Runner) StartIfEmpty() {
	r.start(modeIfEmpty)
}

// RunSync runs a full rebuild and waits for it. Cancelling ctx cancels the run.
func (r *Runner) RunSync(ctx context.Context) (Report, error) {
	return r.wait(ctx, r.start(modeAll))
}

// ResetSync drops the index and rebuilds it, waiting for the result. It never
// replaces a live run and fails with domain.ErrRebuildInProgress instead.
func (r *Runner) ResetSync(ctx context.Context) (Report, error) {
	r.startMu.Lock()
	r.mu.Lock()
	busy := r.current != nil
	r.mu.Unlock()
	if busy {
		r.startMu.Unlock()
		return Report{}, fmt.Errorf("reset index: %w", domain.ErrRebuildInProgress)
	}
	cur := r.launch(modeReset)
	r.startMu.Unlock()
	return r.wait(ctx, cur)
}

func (r *Runner) wait(ctx context.Context, cur *run) (Report, error) {
	select {
	case <-cur.done:
	case <-ctx.Done():
		cur.cancel()
		<-cur.done
	}
	return cur.report, cur.err
}

// Status returns the current runner state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	var st Status
	if r.current != nil {
		st.Running = true
		st.StartedAt = r.current.startedAt
	}
	if r.last != nil {
		rep := r.last.report
		st.Last = &rep
		st.LastErr = r.last.err
	}
	return st
}

// Stop cancels the in-flight rebuild and waits until it returns or ctx ends.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur == nil {
		return
	}
	cur.cancel()
	select {
	case <-cur.done:
	case <-ctx.Done():
	}
}

func (r *Runner) start(mode runMode) *run {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.mu.Lock()
	prev := r.current
	r.mu.Unlock()
	if prev != nil {
		r.logger.Info("Cancelling in-flight embedding rebuild", zap.Time("started_at", prev.startedAt))
		prev.cancel()
		<-prev.done
	}
	return r.launch(mode)
}

// launch starts a run; the caller holds startMu and no run is live.
func (r *Runner) launch(mode runMode) *run {
	ctx, cancel := context.WithCancel(r.base)
	cur := &run{startedAt: time.Now(), mode: mode, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	r.current = cur
	r.mu.Unlock()

	go r.execute(ctx, cur)
	return cur
}

func (r *Runner) execute(ctx context.Context, cur *run) {
	defer close(cur.done)
	defer cur.cancel()

	switch cur.mode {
	case modeIfEmpty:
		cur.report, cur.ran, cur.err = r.pipeline.RebuildIfEmpty(ctx)
	case modeReset:
		cur.report, cur.err = r.pipeline.ResetAndRebuild(ctx)
		cur.ran = true
	default:
		cur.report, cur.err = r.pipeline.RebuildAll(ctx)
		cur.ran = true
	}
	if cur.err != nil {
		r.logger.Error("Embedding rebuild failed", zap.Error(cur.err))
	}

	r.mu.Lock()
	if r.current == cur {
		r.current = nil
	}
	if cur.ran || cur.err != nil {
		r.last = cur
	}
	r.mu.Unlock()
}
