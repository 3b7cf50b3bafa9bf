package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const rateLimitKeyPrefix = "rate_limit:"

type RateLimitResult struct {
	Allowed    bool          `json:"allowed"`
	Count      int64         `json:"count"`
	Remaining  int64         `json:"remaining"`
	ResetTime  time.Time     `json:"reset_time"`
	RetryAfter time.Duration `json:"retry_after"`
}

func newRateLimitResult(count, limit int64, ttl time.Duration) *RateLimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	result := &RateLimitResult{
		Allowed:   count <= limit,
		Count:     count,
		Remaining: remaining,
		ResetTime: time.Now().Add(ttl),
	}
	if !result.Allowed {
		result.RetryAfter = ttl
	}
	return result
}

// CheckRateLimit counts a hit in a fixed window that starts with the first hit.
func (r *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	rateLimitKey := rateLimitKeyPrefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, rateLimitKey)
	ttl := pipe.PTTL(ctx, rateLimitKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		// First hit of the window, or a key that lost its expiry.
		if err := r.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return nil, fmt.Errorf("failed to set rate limit window: %w", err)
		}
		remaining = window
	}
	return newRateLimitResult(incr.Val(), limit, remaining), nil
}

// LocalRateLimiter keeps fixed windows in memory for single-instance deployments.
type LocalRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*localWindow
	now     func() time.Time
}

type localWindow struct {
	count   int64
	resetAt time.Time
}

func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{
		windows: make(map[string]*localWindow),
		now:     time.Now,
	}
}

func (l *LocalRateLimiter) CheckRateLimit(_ context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &localWindow{resetAt: now.Add(window)}
		l.windows[key] = w
		l.evictExpired(now)
	}
	w.count++

	return newRateLimitResult(w.count, limit, w.resetAt.Sub(now)), nil
}

// evictExpired bounds memory; callers hold l.mu.
func (l *LocalRateLimiter) evictExpired(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}
