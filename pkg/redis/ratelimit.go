package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter shared by every process using the same Redis.
// The in-process API limiter cannot see other replicas; this one can.
// ⭐ SSOT: 외부 API 호출 한도는 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // e.g. "catalog"
	Limit  int           // max requests per window
	Window time.Duration // window length
}

// CatalogRateLimit bounds calls to the pricing catalog across all replicas
var CatalogRateLimit = RateLimitConfig{
	Key:    "catalog",
	Limit:  20,
	Window: time.Second,
}

// slidingWindow: trim, count, admit. Returns {allowed, remaining}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
local count = redis.call('ZCARD', key)
if count >= limit then
	return {0, 0}
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window_ms)
return {1, limit - count - 1}
`)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow reports whether one more request fits in the window, and how many remain.
// With Redis disabled every request is allowed.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	now := time.Now()
	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	member := fmt.Sprintf("%d", now.UnixNano())

	res, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now.UnixMilli(), cfg.Window.Milliseconds(), cfg.Limit, member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	return res[0] == 1, int(res[1]), nil
}

// Wait blocks until a request is allowed or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	poll := cfg.Window / 10
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}

	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}
