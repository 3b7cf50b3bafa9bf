package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalRateLimiterWindow(t *testing.T) {
	limiter := NewLocalRateLimiter()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := limiter.CheckRateLimit(ctx, "ip:1", 3, time.Minute)
		if err != nil || !res.Allowed {
			t.Fatalf("hit %d = %+v, %v; want allowed", i, res, err)
		}
		if res.Remaining != int64(3-i) {
			t.Errorf("hit %d remaining = %d, want %d", i, res.Remaining, 3-i)
		}
	}

	res, _ := limiter.CheckRateLimit(ctx, "ip:1", 3, time.Minute)
	if res.Allowed || res.RetryAfter != time.Minute {
		t.Fatalf("4th hit = %+v, want blocked with a minute to wait", res)
	}

	// Other keys have their own window.
	if res, _ := limiter.CheckRateLimit(ctx, "ip:2", 3, time.Minute); !res.Allowed {
		t.Error("independent key was limited")
	}

	now = now.Add(time.Minute)
	if res, _ := limiter.CheckRateLimit(ctx, "ip:1", 3, time.Minute); !res.Allowed || res.Count != 1 {
		t.Errorf("new window = %+v, want fresh count", res)
	}
}
