package task

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Work is the body of a background task. It must not touch display state directly;
// every visible effect goes through t.Post.
type Work func(ctx context.Context, t *Task) error

// ErrorHandler renders a task failure. It always runs on the interactive thread.
type ErrorHandler func(err error)

// Task is a handle to one running background task.
type Task struct {
	sched Scheduler
	ID    string
	Name  string
}

// Post marshals fn onto the interactive thread. Calls from the same task run in order.
func (t *Task) Post(fn func()) {
	t.sched.Schedule(fn)
}

// Runner launches background tasks. Each Run gets its own goroutine.
type Runner struct {
	sched   Scheduler
	onError ErrorHandler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewRunner creates a runner that marshals through sched. onError is the fallback
// for tasks started without their own handler; it may be nil.
func NewRunner(sched Scheduler, onError ErrorHandler) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		sched:   sched,
		onError: onError,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run starts work in the background and returns immediately. A returned error or a
// panic ends the task and is delivered to catch (or the runner's default handler)
// as a marshaled callback; it never reaches the interactive thread as a panic.
// After Close the work is not started and catch receives context.Canceled.
func (r *Runner) Run(name string, work Work, catch ErrorHandler) *Task {
	t := &Task{
		ID:    uuid.NewString(),
		Name:  name,
		sched: r.sched,
	}
	if catch == nil {
		catch = r.onError
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		err := fmt.Errorf("%s: runner closed: %w", name, r.ctx.Err())
		log.Debug().Str("task", t.Name).Str("taskId", t.ID).Msg("Task not started, runner closed")
		if catch != nil {
			t.Post(func() { catch(err) })
		}
		return t
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		err := r.execute(t, work)
		if err == nil {
			log.Debug().Str("task", t.Name).Str("taskId", t.ID).Msg("Task finished")
			return
		}

		log.Warn().Err(err).Str("task", t.Name).Str("taskId", t.ID).Msg("Task failed")
		if catch != nil {
			t.Post(func() { catch(err) })
		}
	}()
	return t
}

func (r *Runner) execute(t *Task, work Work) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("task", t.Name).
				Str("taskId", t.ID).
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("Task panicked")
			err = fmt.Errorf("%s: unexpected failure: %v", t.Name, rec)
		}
	}()

	log.Debug().Str("task", t.Name).Str("taskId", t.ID).Msg("Task started")
	return work(r.ctx, t)
}

// Wait blocks until every started task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels the context handed to running tasks and waits for them.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}
