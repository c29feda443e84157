package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outbound provider calls to stay under the provider's rate
// ceiling. Wait blocks until the next call for the scope may proceed.
type Limiter interface {
	Wait(ctx context.Context, scope string) error
}

const (
	minInterval = 100 * time.Millisecond
	maxInterval = 600 * time.Millisecond
)

// FixedIntervalLimiter enforces a fixed gap between consecutive calls. It is
// the single-instance throttle: one send, one sleep, repeat.
type FixedIntervalLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Limiter = (*FixedIntervalLimiter)(nil)

func NewFixedIntervalLimiter(interval time.Duration) *FixedIntervalLimiter {
	return newFixedIntervalLimiter(interval, time.Now, SleepWithContext)
}

func newFixedIntervalLimiter(
	interval time.Duration,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) *FixedIntervalLimiter {
	if interval < minInterval {
		interval = minInterval
	}
	if interval > maxInterval {
		interval = maxInterval
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = SleepWithContext
	}

	return &FixedIntervalLimiter{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      nowFn,
		sleep:    sleepFn,
	}
}

func (l *FixedIntervalLimiter) Wait(ctx context.Context, scope string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	now := l.now()
	wait := time.Duration(0)
	if last, ok := l.last[scope]; ok {
		if elapsed := now.Sub(last); elapsed < l.interval {
			wait = l.interval - elapsed
		}
	}
	l.last[scope] = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return l.sleep(ctx, wait)
}

// SleepWithContext sleeps for d or returns early with the context's error.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
