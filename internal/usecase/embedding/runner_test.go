package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
)

// blockingRebuilder blocks every RebuildAll until its context is cancelled
// or release is closed.
type blockingRebuilder struct {
	mu        sync.Mutex
	started   chan int
	release   chan struct{}
	cancelled []int
	calls     int
	ifEmpty   bool
}

func newBlockingRebuilder() *blockingRebuilder {
	return &blockingRebuilder{started: make(chan int, 8), release: make(chan struct{})}
}

func (b *blockingRebuilder) RebuildAll(ctx context.Context) (Report, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()
	b.started <- call

	select {
	case <-ctx.Done():
		b.mu.Lock()
		b.cancelled = append(b.cancelled, call)
		b.mu.Unlock()
		return Report{Total: call, Aborted: AbortCancelled}, nil
	case <-b.release:
		return Report{Total: call}, nil
	}
}

func (b *blockingRebuilder) RebuildIfEmpty(ctx context.Context) (Report, bool, error) {
	if !b.ifEmpty {
		return Report{}, false, nil
	}
	rep, err := b.RebuildAll(ctx)
	return rep, true, err
}

func (b *blockingRebuilder) ResetAndRebuild(ctx context.Context) (Report, error) {
	return b.RebuildAll(ctx)
}

func waitStarted(t *testing.T, b *blockingRebuilder) int {
	t.Helper()
	select {
	case n := <-b.started:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild did not start")
		return 0
	}
}

func TestRunner_StartCancelsInFlight(t *testing.T) {
	b := newBlockingRebuilder()
	r := NewRunner(context.Background(), b, zap.NewNop())

	r.Start()
	waitStarted(t, b)
	if !r.Status().Running {
		t.Fatal("expected running status")
	}

	r.Start()
	if n := waitStarted(t, b); n != 2 {
		t.Fatalf("second run = %d", n)
	}

	b.mu.Lock()
	cancelled := append([]int(nil), b.cancelled...)
	b.mu.Unlock()
	if len(cancelled) != 1 || cancelled[0] != 1 {
		t.Fatalf("cancelled = %v, want [1]", cancelled)
	}

	close(b.release)
	r.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for r.Status().Running && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	st := r.Status()
	if st.Running || st.Last == nil || st.Last.Total != 2 {
		t.Errorf("status = %+v", st)
	}
}

func TestRunner_RunSync(t *testing.T) {
	b := newBlockingRebuilder()
	close(b.release)
	r := NewRunner(context.Background(), b, zap.NewNop())

	rep, err := r.RunSync(context.Background())
	if err != nil || rep.Total != 1 {
		t.Fatalf("rep=%+v err=%v", rep, err)
	}
	if st := r.Status(); st.Running || st.Last == nil {
		t.Errorf("status = %+v", st)
	}
}

func TestRunner_RunSyncCancelledByCaller(t *testing.T) {
	b := newBlockingRebuilder()
	r := NewRunner(context.Background(), b, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-b.started
		cancel()
	}()

	rep, _ := r.RunSync(ctx)
	if rep.Aborted != AbortCancelled {
		t.Errorf("report = %+v", rep)
	}
}

func TestRunner_StartIfEmptySkipped(t *testing.T) {
	b := newBlockingRebuilder()
	r := NewRunner(context.Background(), b, zap.NewNop())

	r.StartIfEmpty()
	r.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for r.Status().Running && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if st := r.Status(); st.Last != nil {
		t.Errorf("a skipped rebuild must not replace the last report: %+v", st)
	}
}

type failingRebuilder struct{ err error }

func (f failingRebuilder) ResetAndRebuild(context.Context) (Report, error) { return Report{}, f.err }
func (f failingRebuilder) RebuildAll(context.Context) (Report, error) { return Report{}, f.err }
func (f failingRebuilder) RebuildIfEmpty(context.Context) (Report, bool, error) {
	return Report{}, false, f.err
}

func TestRunner_RecordsError(t *testing.T) {
	boom := errors.New("catalog down")
	r := NewRunner(context.Background(), failingRebuilder{err: boom}, zap.NewNop())

	if _, err := r.RunSync(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if st := r.Status(); !errors.Is(st.LastErr, boom) {
		t.Errorf("status = %+v", st)
	}
}

func TestRunner_ResetSyncRefusesWhileRunning(t *testing.T) {
	b := newBlockingRebuilder()
	r := NewRunner(context.Background(), b, zap.NewNop())

	r.Start()
	waitStarted(t, b)

	if _, err := r.ResetSync(context.Background()); !errors.Is(err, domain.ErrRebuildInProgress) {
		t.Fatalf("err = %v, want ErrRebuildInProgress", err)
	}
	b.mu.Lock()
	cancelled := len(b.cancelled)
	b.mu.Unlock()
	if cancelled != 0 {
		t.Error("reset must not cancel the live run")
	}

	close(b.release)
	r.Stop(context.Background())
}

func TestRunner_ResetSync(t *testing.T) {
	b := newBlockingRebuilder()
	close(b.release)
	r := NewRunner(context.Background(), b, zap.NewNop())

	rep, err := r.ResetSync(context.Background())
	if err != nil || rep.Total != 1 {
		t.Fatalf("rep=%+v err=%v", rep, err)
	}
	if st := r.Status(); st.Last == nil || st.Last.Total != 1 {
		t.Errorf("status = %+v", st)
	}
}
