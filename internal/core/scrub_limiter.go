package core

// scrub_limiter.go bounds how many scrub pipelines run at once.
//
// Prison-tier runs hold an outbound lookup connection per row, so the slot
// count is also a cap on concurrent carrier lookups. A request that cannot
// get a slot within maxWait fails with ErrTooManyScrubs and its balance
// deduction is refunded by the caller.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyScrubs is returned when every scrub slot is busy for longer than
// the configured wait.
var ErrTooManyScrubs = errors.New("too many scrubs in progress, please try again later")

// DefaultMaxConcurrentScrubs is used when the configured limit is not positive.
const DefaultMaxConcurrentScrubs = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ScrubLimiter is a counting semaphore over running scrubs.
type ScrubLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewScrubLimiter allows at most maxConcurrent scrubs at once.
func NewScrubLimiter(maxConcurrent int, maxWait time.Duration) *ScrubLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentScrubs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ScrubLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits up to maxWait for a slot. Callers must Release on success.
func (l *ScrubLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyScrubs
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ScrubLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ScrubLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of running scrubs.
func (l *ScrubLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *ScrubLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *ScrubLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no scrub is running or ctx is done. The server
// calls it during shutdown after cancelling running sessions.
func (l *ScrubLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// ScrubLimiterStatus is a snapshot for the health endpoint.
type ScrubLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

func (l *ScrubLimiter) Status() ScrubLimiterStatus {
	return ScrubLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
