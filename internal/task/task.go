// Package task runs one background computation at a time and tracks its
// lifecycle: not started, running, completed or failed.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBusy is returned by Start while a previous run is still in flight.
var ErrBusy = errors.New("task: already running")

// ErrSuperseded is returned by WaitRun when a newer run has replaced the
// requested one, or the id was never issued.
var ErrSuperseded = errors.New("task: run superseded")

// State is the lifecycle state of a Runner.
type State int

const (
	// NotStarted means Start has never been called.
	NotStarted State = iota
	// Running means a run is in flight.
	Running
	// Completed means the last run returned a result.
	Completed
	// Failed means the last run returned an error or was cancelled.
	Failed
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Func is the computation driven by a Runner.
type Func[T any] func(ctx context.Context) (T, error)

// Snapshot is a point-in-time copy of a Runner's state. Result is only set
// when State is Completed; Err only when State is Failed.
type Snapshot[T any] struct {
	ID         string
	State      State
	Result     T
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns the run duration, or the time since start while running.
func (s Snapshot[T]) Elapsed() time.Duration {
	switch {
	case s.StartedAt.IsZero():
		return 0
	case s.FinishedAt.IsZero():
		return time.Since(s.StartedAt)
	default:
		return s.FinishedAt.Sub(s.StartedAt)
	}
}

// run tracks one Start call. final is written before done is closed.
type run[T any] struct {
	id    string
	done  chan struct{}
	final Snapshot[T]
}

// Runner executes at most one Func at a time.
type Runner[T any] struct {
	name string
	log  *slog.Logger

	mu     sync.Mutex
	snap   Snapshot[T]
	cancel context.CancelFunc
	cur    *run[T]
}

// NewRunner returns an idle runner. name is used in log records.
func NewRunner[T any](name string, logger *slog.Logger) *Runner[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner[T]{name: name, log: logger}
}

// Start launches fn in a new goroutine and returns the run id. The run's
// context derives from ctx and is cancelled by Cancel.
func (r *Runner[T]) Start(ctx context.Context, fn Func[T]) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap.State == Running {
		return "", ErrBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	id := uuid.New().String()
	cur := &run[T]{id: id, done: make(chan struct{})}
	r.snap = Snapshot[T]{ID: id, State: Running, StartedAt: time.Now()}
	r.cancel = cancel
	r.cur = cur
	r.log.Debug("task started", "task", r.name, "id", id)

	go func() {
		res, err := fn(runCtx)
		cancel()

		r.mu.Lock()
		defer r.mu.Unlock()
		r.snap.FinishedAt = time.Now()
		if err != nil {
			r.snap.State = Failed
			r.snap.Err = err
			r.log.Debug("task failed", "task", r.name, "id", id, "error", err)
		} else {
			r.snap.State = Completed
			r.snap.Result = res
			r.log.Debug("task completed", "task", r.name, "id", id, "elapsed", r.snap.Elapsed())
		}
		cur.final = r.snap
		close(cur.done)
	}()
	return id, nil
}

// Cancel requests cancellation of the in-flight run, if any.
func (r *Runner[T]) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap.State == Running && r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the current run finishes or ctx is done, then returns
// that run's snapshot. It returns immediately when nothing was started.
func (r *Runner[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	r.mu.Lock()
	cur := r.cur
	r.mu.Unlock()
	if cur == nil {
		return r.Snapshot(), nil
	}
	return r.await(ctx, cur)
}

// WaitRun is Wait for the run with the given id. A run that is no longer the
// latest one yields ErrSuperseded, so a late waiter never sees a newer run's
// result under an older id.
func (r *Runner[T]) WaitRun(ctx context.Context, id string) (Snapshot[T], error) {
	r.mu.Lock()
	cur := r.cur
	r.mu.Unlock()
	if cur == nil || cur.id != id {
		return Snapshot[T]{ID: id}, ErrSuperseded
	}
	return r.await(ctx, cur)
}

func (r *Runner[T]) await(ctx context.Context, cur *run[T]) (Snapshot[T], error) {
	select {
	case <-cur.done:
		return cur.final, nil
	case <-ctx.Done():
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.cur == cur {
			return r.snap, ctx.Err()
		}
		return cur.final, ctx.Err()
	}
}

// Snapshot returns a copy of the current state.
func (r *Runner[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Busy reports whether a run is in flight.
func (r *Runner[T]) Busy() bool {
	return r.Snapshot().State == Running
}
