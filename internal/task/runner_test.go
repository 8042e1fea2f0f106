package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RunnerSuite runs tasks against a live Loop standing in for the interactive thread.
type RunnerSuite struct {
	suite.Suite
	loop   *Loop
	cancel context.CancelFunc
	runner *Runner
}

func (s *RunnerSuite) SetupTest() {
	s.loop = NewLoop(0)
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go s.loop.Run(ctx)
	s.runner = NewRunner(s.loop, nil)
}

func (s *RunnerSuite) TearDownTest() {
	s.runner.Close()
	s.cancel()
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

// TestRunReturnsImmediately verifies Run does not wait for the work.
func (s *RunnerSuite) TestRunReturnsImmediately() {
	release := make(chan struct{})
	finished := make(chan struct{})

	start := time.Now()
	t := s.runner.Run("slow", func(ctx context.Context, t *Task) error {
		<-release
		close(finished)
		return nil
	}, nil)

	s.Less(time.Since(start), 100*time.Millisecond)
	s.NotEmpty(t.ID)
	s.Equal("slow", t.Name)

	close(release)
	<-finished
}

// TestPostPreservesOrder verifies FIFO delivery of callbacks from one task.
func (s *RunnerSuite) TestPostPreservesOrder() {
	var got []int // only touched on the loop

	s.runner.Run("ordered", func(ctx context.Context, t *Task) error {
		for i := 0; i < 200; i++ {
			i := i
			t.Post(func() { got = append(got, i) })
		}
		return nil
	}, nil)
	s.runner.Wait()

	var snapshot []int
	s.True(s.loop.Call(func() { snapshot = append(snapshot, got...) }))
	s.Require().Len(snapshot, 200)
	for i, v := range snapshot {
		s.Equal(i, v)
	}
}

// TestErrorIsMarshaled verifies returned errors reach the handler on the loop.
func (s *RunnerSuite) TestErrorIsMarshaled() {
	boom := errors.New("provider unavailable")
	caught := make(chan error, 1)

	s.runner.Run("failing", func(ctx context.Context, t *Task) error {
		return boom
	}, func(err error) { caught <- err })

	select {
	case err := <-caught:
		s.ErrorIs(err, boom)
	case <-time.After(2 * time.Second):
		s.Fail("error handler was not called")
	}
}

// TestPanicIsContained verifies a panic becomes an error callback.
func (s *RunnerSuite) TestPanicIsContained() {
	caught := make(chan error, 1)

	s.runner.Run("panicky", func(ctx context.Context, t *Task) error {
		panic("nil map write")
	}, func(err error) { caught <- err })

	select {
	case err := <-caught:
		s.Contains(err.Error(), "panicky")
		s.Contains(err.Error(), "nil map write")
	case <-time.After(2 * time.Second):
		s.Fail("panic was not converted")
	}
}

// TestDefaultErrorHandler verifies the runner-level handler is the fallback.
func (s *RunnerSuite) TestDefaultErrorHandler() {
	caught := make(chan error, 1)
	runner := NewRunner(s.loop, func(err error) { caught <- err })
	defer runner.Close()

	runner.Run("fallback", func(ctx context.Context, t *Task) error {
		return errors.New("no handler")
	}, nil)

	select {
	case err := <-caught:
		s.EqualError(err, "no handler")
	case <-time.After(2 * time.Second):
		s.Fail("default handler was not called")
	}
}

// TestRunAfterCloseIsRefused verifies a closed runner reports instead of starting work.
func (s *RunnerSuite) TestRunAfterCloseIsRefused() {
	runner := NewRunner(s.loop, nil)
	runner.Close()

	ran := false
	caught := make(chan error, 1)
	runner.Run("late", func(ctx context.Context, t *Task) error {
		ran = true
		return nil
	}, func(err error) { caught <- err })

	select {
	case err := <-caught:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("error callback not delivered")
	}
	runner.Wait()
	s.False(ran)
}

// TestCloseCancelsContext verifies Close signals running tasks.
func (s *RunnerSuite) TestCloseCancelsContext() {
	runner := NewRunner(s.loop, nil)
	started := make(chan struct{})
	var observed error

	runner.Run("blocking", func(ctx context.Context, t *Task) error {
		close(started)
		<-ctx.Done()
		observed = ctx.Err()
		return nil
	}, nil)

	<-started
	runner.Close()
	s.ErrorIs(observed, context.Canceled)
}

func TestLoop_CallbacksRunOnSingleGoroutine(t *testing.T) {
	loop := NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		wg      sync.WaitGroup
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				loop.Schedule(func() {
					mu.Lock()
					running++
					if running > maxSeen {
						maxSeen = running
					}
					mu.Unlock()
					time.Sleep(10 * time.Microsecond)
					mu.Lock()
					running--
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()
	require.True(t, loop.Call(func() {}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen)
}

func TestLoop_ScheduleAfterCloseIsDropped(t *testing.T) {
	loop := NewLoop(1)
	loop.Close()

	done := make(chan struct{})
	go func() {
		loop.Schedule(func() {})
		loop.Schedule(func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Schedule blocked on a closed loop")
	}
	assert.False(t, loop.Call(func() {}))
}
