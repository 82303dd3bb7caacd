package core

// limiter.go bounds how many feed builds run at once.
//
// Every stock build walks the store catalog, so unbounded parallel builds
// would queue behind the commerce rate limiter and time out together. A
// request that cannot get a slot within the wait time fails with
// ErrTooManyBuilds, which the web layer reports as 503.
//
// WaitForDrain lets shutdown finish the builds already running.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyBuilds is returned when no build slot frees up in time.
var ErrTooManyBuilds = errors.New("too many concurrent feed builds, please try again later")

const (
	defaultMaxConcurrentBuilds = 4
	defaultBuildWait           = 30 * time.Second
)

// BuildLimiter is a weighted semaphore with a bounded wait.
type BuildLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewBuildLimiter allows at most maxConcurrent builds; non-positive values
// fall back to the defaults.
func NewBuildLimiter(maxConcurrent int, maxWait time.Duration) *BuildLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentBuilds
	}
	if maxWait <= 0 {
		maxWait = defaultBuildWait
	}
	return &BuildLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must Release it.
func (l *BuildLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyBuilds
	}
	l.active.Add(1)
	return nil
}

// Release returns a slot taken by Acquire.
func (l *BuildLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// Active returns the number of builds holding a slot.
func (l *BuildLimiter) Active() int {
	return int(l.active.Load())
}

// Max returns the slot count.
func (l *BuildLimiter) Max() int {
	return l.max
}

// WaitForDrain blocks until no build holds a slot or ctx ends.
func (l *BuildLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, int64(l.max)); err != nil {
		return err
	}
	l.sem.Release(int64(l.max))
	return nil
}
