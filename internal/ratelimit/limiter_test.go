package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(perMinute int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(perMinute).WithClock(clock.Now), clock
}

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{name: "explicit capacity", input: 5, expected: 5},
		{name: "zero falls back", input: 0, expected: DefaultPerMinute},
		{name: "negative falls back", input: -3, expected: DefaultPerMinute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.input).Capacity())
		})
	}
}

func TestAllow_RejectsOverCapacity(t *testing.T) {
	l, _ := newTestLimiter(3)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	assert.False(t, l.Allow())
	assert.Equal(t, 0, l.Remaining())
}

func TestAllow_RejectionDoesNotExtendWindow(t *testing.T) {
	l, clock := newTestLimiter(1)

	require.True(t, l.Allow())
	clock.Advance(30 * time.Second)
	require.False(t, l.Allow())

	// The rejected call at +30s must not have been recorded.
	clock.Advance(30*time.Second + time.Millisecond)
	assert.True(t, l.Allow())
}

func TestAllow_EvictsOldEntries(t *testing.T) {
	l, clock := newTestLimiter(2)

	require.True(t, l.Allow())
	clock.Advance(10 * time.Second)
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	clock.Advance(50*time.Second + time.Millisecond)
	assert.Equal(t, 1, l.Remaining())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

// TestAllow_TrailingWindowProperty checks that no trailing 60s window ever holds more
// than the configured number of admissions, across an irregular call pattern.
func TestAllow_TrailingWindowProperty(t *testing.T) {
	const capacity = 4
	l, clock := newTestLimiter(capacity)

	steps := []time.Duration{
		0, time.Second, 2 * time.Second, 500 * time.Millisecond, 15 * time.Second,
		20 * time.Second, 21 * time.Second, time.Second, 3 * time.Second, 40 * time.Second,
		time.Millisecond, 59 * time.Second, 0, 0, 2 * time.Second, 61 * time.Second,
	}

	var admitted []time.Time
	for _, step := range steps {
		clock.Advance(step)
		for i := 0; i < 3; i++ {
			if l.Allow() {
				admitted = append(admitted, clock.Now())
			}
		}
	}

	require.NotEmpty(t, admitted)
	for i, start := range admitted {
		count := 0
		for _, at := range admitted[i:] {
			if at.Sub(start) < Window {
				count++
			}
		}
		assert.LessOrEqual(t, count, capacity, "window starting at %s", start)
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := New(50)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, granted)
}
