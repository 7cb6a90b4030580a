// Package async runs reindex operations off the caller's goroutine so an
// event loop (or interactive command) is never blocked on file and
// database I/O. A cross-process file lock keeps two lorestore processes
// from reindexing the same data directory at once.
package async

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/lorekit/lorestore/internal/store"
)

// ReindexFunc is the actual reindex work, typically IndexStore.Reindex
// bound to a pattern.
type ReindexFunc func(ctx context.Context, progress store.ProgressFunc) (*store.ReindexResult, error)

// Status of a background reindex run.
type Status string

const (
	// StatusIdle means no run has started yet.
	StatusIdle Status = "idle"
	// StatusRunning means a reindex is in progress.
	StatusRunning Status = "running"
	// StatusReady means the last run completed successfully.
	StatusReady Status = "ready"
	// StatusError means the last run failed.
	StatusError Status = "error"
)

// Snapshot is an immutable view of the reindexer state.
type Snapshot struct {
	Status      Status    `json:"status"`
	LastMessage string    `json:"last_message,omitempty"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	Error       string    `json:"error,omitempty"`
}

// Reindexer runs ReindexFunc in a background goroutine.
type Reindexer struct {
	fn   ReindexFunc
	lock *flock.Flock

	mu        sync.Mutex
	status    Status
	lastMsg   string
	startedAt time.Time
	err       error
	result    *store.ReindexResult
	doneCh    chan struct{}
}

// New creates a reindexer whose runs are guarded by a lock file in
// dataDir.
func New(dataDir string, fn ReindexFunc) *Reindexer {
	return &Reindexer{
		fn:     fn,
		lock:   flock.New(filepath.Join(dataDir, ".reindex.lock")),
		status: StatusIdle,
	}
}

// Start launches a background run. Returns false without starting when a
// run is already in progress in this process, or when another process
// holds the reindex lock.
func (r *Reindexer) Start(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusRunning {
		return false, nil
	}

	acquired, err := r.lock.TryLock()
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}

	r.status = StatusRunning
	r.startedAt = time.Now()
	r.err = nil
	r.result = nil
	r.doneCh = make(chan struct{})

	go r.run(ctx)
	return true, nil
}

func (r *Reindexer) run(ctx context.Context) {
	defer close(r.doneCh)
	defer func() { _ = r.lock.Unlock() }()

	result, err := r.fn(ctx, func(msg string) {
		r.mu.Lock()
		r.lastMsg = msg
		r.mu.Unlock()
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.status = StatusError
		r.err = err
		return
	}
	r.status = StatusReady
	r.result = result
}

// Wait blocks until the current run finishes and returns its outcome.
// Calling Wait with no run started returns immediately.
func (r *Reindexer) Wait() (*store.ReindexResult, error) {
	r.mu.Lock()
	done := r.doneCh
	r.mu.Unlock()

	if done == nil {
		return nil, nil
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}

// Snapshot returns the current state.
func (r *Reindexer) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Status:      r.status,
		LastMessage: r.lastMsg,
		StartedAt:   r.startedAt,
	}
	if r.err != nil {
		snap.Error = r.err.Error()
	}
	return snap
}
