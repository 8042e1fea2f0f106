// Package ratelimit provides sliding-window admission control for outbound model requests.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultPerMinute is the admission capacity used when none is configured.
	DefaultPerMinute = 30

	// Window is the trailing interval over which admissions are counted.
	Window = time.Minute
)

// Limiter admits at most a fixed number of requests in any trailing one-minute window.
// It is safe for concurrent use.
type Limiter struct {
	now      func() time.Time
	events   []time.Time // admission timestamps, oldest first
	capacity int
	mu       sync.Mutex
}

// New creates a limiter admitting perMinute requests per window.
// Non-positive values fall back to DefaultPerMinute.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	return &Limiter{
		capacity: perMinute,
		now:      time.Now,
		events:   make([]time.Time, 0, perMinute),
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
	return l
}

// Allow reports whether a request may start now. An admitted request is recorded;
// a rejected one leaves the window untouched.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictLocked(now)

	if len(l.events) >= l.capacity {
		return false
	}
	l.events = append(l.events, now)
	return true
}

// Remaining returns how many admissions are currently available.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-Window)
	live := 0
	for _, t := range l.events {
		if !t.Before(cutoff) {
			live++
		}
	}
	return l.capacity - live
}

// Capacity returns the configured admissions per window.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// evictLocked drops timestamps older than the window. Caller holds mu.
func (l *Limiter) evictLocked(now time.Time) {
	cutoff := now.Add(-Window)
	i := 0
	for i < len(l.events) && l.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.events = append(l.events[:0], l.events[i:]...)
	}
}
