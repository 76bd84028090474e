// Package lifecycle coordinates process startup, background work, and
// graceful shutdown around a single cancellable context.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Coordinator owns the process context. Startup hooks run concurrently and
// gate readiness; shutdown hooks and background tasks are awaited after the
// context is cancelled.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup
	tasks    sync.WaitGroup

	running  atomic.Int64
	ready    atomic.Bool
	stopping atomic.Bool
}

// New creates a Coordinator with a fresh context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently; readiness waits for it.
func (c *Coordinator) OnStartup(fn func()) {
	c.startup.Go(fn)
}

// OnShutdown runs fn concurrently. Hooks block on <-Context().Done()
// before releasing their resources.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Go(fn)
}

// Go runs fn as a tracked background task. fn must return once ctx is done;
// Shutdown waits for it.
func (c *Coordinator) Go(fn func(ctx context.Context)) {
	c.running.Add(1)
	c.tasks.Go(func() {
		defer c.running.Add(-1)
		fn(c.ctx)
	})
}

// Running reports how many background tasks have not yet returned.
func (c *Coordinator) Running() int {
	return int(c.running.Load())
}

// Ready reports whether startup finished and shutdown has not begun.
func (c *Coordinator) Ready() bool {
	return c.ready.Load() && !c.stopping.Load()
}

// WaitForStartup blocks until every startup hook returns, then marks the
// coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.ready.Store(true)
}

// Shutdown cancels the context and waits up to timeout for shutdown hooks
// and background tasks.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.stopping.Store(true)
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		c.tasks.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-done:
		return nil
	case <-t.C:
		return fmt.Errorf("shutdown timeout after %v with %d background tasks running", timeout, c.Running())
	}
}
