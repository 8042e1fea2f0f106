// Package task runs blocking work off the interactive thread and marshals its
// user-visible effects back onto it.
package task

import (
	"context"
	"sync"
)

// Scheduler enqueues a callback for execution on the interactive thread.
// Callbacks scheduled by one goroutine run in the order they were scheduled,
// each strictly after the event that is currently being processed.
type Scheduler interface {
	Schedule(fn func())
}

// DefaultQueueSize is the callback buffer of a Loop.
const DefaultQueueSize = 1024

// Loop is a single-consumer callback queue acting as the interactive thread for
// headless runs and tests. Only the goroutine inside Run executes callbacks.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop with the given buffer size (DefaultQueueSize if <= 0).
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Schedule enqueues fn. Callbacks scheduled after Close are dropped.
func (l *Loop) Schedule(fn func()) {
	if fn == nil {
		return
	}
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Call runs fn on the loop and waits for it to finish. It must not be used from
// inside a callback. Returns false if the loop stopped first.
func (l *Loop) Call(fn func()) bool {
	finished := make(chan struct{})
	l.Schedule(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// Run executes callbacks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Close stops the loop. Pending callbacks are discarded.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}
