// Package background runs optional best-effort tasks next to the
// interactive loop. The loop never waits on them; their failures are logged
// and dropped, and anything worth showing the user comes back as a notice.
package background

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aigent47/grok-code/internal"
)

// Task is a best-effort job. Notices it sends are shown between inputs.
type Task func(ctx context.Context, notify func(string)) error

// Runner owns the goroutines of started tasks
type Runner struct {
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	notices []string
}

// NewRunner creates a runner whose tasks stop when parent is done or
// Shutdown is called
func NewRunner(parent context.Context) *Runner {
	ctx, cancel := context.WithCancel(parent)
	return &Runner{
		group:  &errgroup.Group{},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go starts task in the background
func (r *Runner) Go(name string, task Task) {
	r.group.Go(func() error {
		defer func() {
			if rec := recover(); rec != nil {
				internal.LogDebug("background task %s panicked: %v", name, rec)
			}
		}()
		if err := task(r.ctx, r.push); err != nil {
			internal.LogDebug("background task %s failed: %v", name, err)
		}
		// failures never propagate to the group
		return nil
	})
}

func (r *Runner) push(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

// Drain returns and clears the pending notices without blocking on tasks
func (r *Runner) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Shutdown cancels all tasks and waits for them to return
func (r *Runner) Shutdown() {
	r.cancel()
	_ = r.group.Wait()
}

// Wait blocks until every started task has returned
func (r *Runner) Wait() {
	_ = r.group.Wait()
}

// WaitFor waits up to d for every started task and reports whether they all
// returned
func (r *Runner) WaitFor(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
