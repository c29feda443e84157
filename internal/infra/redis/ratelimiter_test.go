package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedisClient(t *testing.T) *goredis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestRateLimiterAllow(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)

	now := time.Unix(1_700_000_000, 0)
	limiter, err := newRateLimiter(
		rdb,
		2,
		func() time.Time { return now },
		nil,
	)
	if err != nil {
		t.Fatalf("newRateLimiter() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(context.Background(), "email")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(context.Background(), "email")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Fatal("third call in the same window should be rejected")
	}

	now = now.Add(time.Second)
	allowed, err = limiter.Allow(context.Background(), "email")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("new window should allow the call")
	}
}

func TestRateLimiterWaitBlocksUntilAllowed(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)

	now := time.Unix(1_700_000_100, 0)
	sleeps := 0
	limiter, err := newRateLimiter(
		rdb,
		1,
		func() time.Time { return now },
		func(ctx context.Context, d time.Duration) error {
			sleeps++
			// Advancing the clock opens the next per-second window.
			now = now.Add(time.Second)
			return nil
		},
	)
	if err != nil {
		t.Fatalf("newRateLimiter() error = %v", err)
	}

	if err := limiter.Wait(context.Background(), "email"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if sleeps != 0 {
		t.Fatalf("first Wait() slept %d times, want 0", sleeps)
	}

	if err := limiter.Wait(context.Background(), "email"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if sleeps != 1 {
		t.Fatalf("second Wait() slept %d times, want 1", sleeps)
	}
}

func TestRateLimiterRequiresScope(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)
	limiter, err := NewRateLimiter(rdb, 5)
	if err != nil {
		t.Fatalf("NewRateLimiter() error = %v", err)
	}

	if _, err := limiter.Allow(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty scope")
	}
}

func TestRateLimiterRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewRateLimiter(nil, 5); err == nil {
		t.Fatal("expected error for nil client")
	}
}
