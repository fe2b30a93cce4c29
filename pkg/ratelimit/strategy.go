package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter is the strategy interface the router and controllers program
// against. Keys are caller identities, typically "ratelimit:<client ip>".
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(key string) (bool, error)
	Close() error
}

// RateLimitConfig selects the strategy: Redis when a client is present,
// otherwise the in-process token bucket.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Redis    *redis.Client // Optional, if nil uses in-memory
	Logger   Logger        // Optional logger for Redis operations
}

// NewRateLimiter creates a rate limiter based on configuration.
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}

// InMemoryRateLimiter keeps a token bucket per caller. It is the default for
// single-instance deployments, which is how the landing site usually runs.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu      sync.Mutex
	buckets map[string]*clientBucket
	ops     uint64
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Stale buckets are swept opportunistically so a signup wave does not grow
// the map without bound. The sweep runs every cleanupEvery lookups and drops
// callers idle for more than two windows.
const cleanupEvery = 1024

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		buckets:  make(map[string]*clientBucket),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}
	return !r.bucketFor(key).Allow(), nil
}

// bucketFor returns the caller's limiter, creating it on first sight.
func (r *InMemoryRateLimiter) bucketFor(key string) *rate.Limiter {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[key]
	if !ok {
		perSecond := rate.Limit(float64(r.requests) / r.window.Seconds())
		bucket = &clientBucket{limiter: rate.NewLimiter(perSecond, r.requests)}
		r.buckets[key] = bucket
	}
	bucket.lastSeen = now

	r.ops++
	if r.ops%cleanupEvery == 0 {
		r.sweepLocked(now)
	}

	return bucket.limiter
}

func (r *InMemoryRateLimiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-2 * r.window)
	for key, bucket := range r.buckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

// RedisRateLimiter tracks a sliding window per caller in a sorted set, for
// deployments with more than one instance behind a load balancer.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, logger Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: "ratelimit:",
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

// The check-and-record pair must be atomic, so both run in one Lua script.
const slidingWindowScript = `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local expire = tonumber(ARGV[4])
	local memberId = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

	local count = redis.call('ZCARD', key)
	if count >= limit then
		return 1
	end

	redis.call('ZADD', key, now, memberId)
	redis.call('EXPIRE', key, expire)

	return 0
`

func (r *RedisRateLimiter) IsLimited(key string) (bool, error) {
	fullKey := key
	if !strings.HasPrefix(key, r.keyPrefix) {
		fullKey = r.keyPrefix + key
	}

	// Concurrent requests in the same second need distinct set members.
	args := []interface{}{
		time.Now().Unix(),
		int64(r.window.Seconds()),
		r.requests,
		int64((r.window * 2).Seconds()),
		randomMemberID(),
	}

	result, err := r.client.Eval(context.Background(), slidingWindowScript, []string{fullKey}, args...).Result()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		// Return error instead of silently allowing: limiting is a security control.
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	limited, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("rate limiter Redis error: unexpected reply %T", result)
	}
	return limited == 1, nil
}

// The Redis client is owned by the ApplicationConfig and closed there.
func (r *RedisRateLimiter) Close() error {
	return nil
}

func randomMemberID() string {
	bytes := make([]byte, 8)

	rand.Read(bytes)

	return hex.EncodeToString(bytes)
}
